package swfifo

// ring is a bounded byte queue.
type ring struct {
	buf  []byte
	head int
	size int
}

func newRing(capacity int) ring {
	return ring{buf: make([]byte, capacity)}
}

func (r *ring) len() int  { return r.size }
func (r *ring) free() int { return len(r.buf) - r.size }

func (r *ring) push(b byte) bool {
	if r.size == len(r.buf) {
		return false
	}
	r.buf[(r.head+r.size)%len(r.buf)] = b
	r.size++
	return true
}

func (r *ring) pop() (byte, bool) {
	if r.size == 0 {
		return 0, false
	}
	b := r.buf[r.head]
	r.head = (r.head + 1) % len(r.buf)
	r.size--
	return b, true
}

func (r *ring) reset() {
	r.head, r.size = 0, 0
}
