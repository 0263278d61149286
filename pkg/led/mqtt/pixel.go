package mqtt

import (
	"github.com/golang/protobuf/proto"
)

// PixelState is the payload published on every LED change.
type PixelState struct {
	Red       int32 `protobuf:"varint,1,opt,name=red,proto3" json:"red,omitempty"`
	Green     int32 `protobuf:"varint,2,opt,name=green,proto3" json:"green,omitempty"`
	Blue      int32 `protobuf:"varint,3,opt,name=blue,proto3" json:"blue,omitempty"`
	Intensity int32 `protobuf:"varint,4,opt,name=intensity,proto3" json:"intensity,omitempty"`
	// Seq increases with every published state.
	Seq uint64 `protobuf:"varint,5,opt,name=seq,proto3" json:"seq,omitempty"`
}

// Reset implements proto.Message.
func (m *PixelState) Reset() { *m = PixelState{} }

// String implements proto.Message.
func (m *PixelState) String() string { return proto.CompactTextString(m) }

// ProtoMessage implements proto.Message.
func (*PixelState) ProtoMessage() {}

// Encode returns the wire form of the state.
func (m *PixelState) Encode() ([]byte, error) {
	return proto.Marshal(m)
}

// UnmarshalPixelState decodes a published payload.
func UnmarshalPixelState(data []byte) (*PixelState, error) {
	var m PixelState
	if err := proto.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
