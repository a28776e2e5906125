package voicecmd

// chunkRing keeps the most recent chunks in preallocated slots. Pushing into
// a full ring overwrites the oldest slot.
type chunkRing struct {
	slots [][]byte
	head  int // oldest
	n     int
}

func newChunkRing(capacity, chunkSize int) *chunkRing {
	buf := make([]byte, capacity*chunkSize)
	slots := make([][]byte, capacity)
	for i := range slots {
		slots[i] = buf[i*chunkSize : (i+1)*chunkSize : (i+1)*chunkSize]
	}
	return &chunkRing{slots: slots}
}

// push copies chunk into the next slot. chunk must be exactly one slot long.
func (r *chunkRing) push(chunk []byte) {
	if len(r.slots) == 0 {
		return
	}
	idx := (r.head + r.n) % len(r.slots)
	if r.n == len(r.slots) {
		r.head = (r.head + 1) % len(r.slots)
	} else {
		r.n++
	}
	copy(r.slots[idx], chunk)
}

// size returns the number of buffered bytes.
func (r *chunkRing) size() int {
	if r.n == 0 {
		return 0
	}
	return r.n * len(r.slots[0])
}

// appendTo appends the buffered chunks, oldest first.
func (r *chunkRing) appendTo(dst []byte) []byte {
	for i := range r.n {
		dst = append(dst, r.slots[(r.head+i)%len(r.slots)]...)
	}
	return dst
}

func (r *chunkRing) reset() {
	r.head, r.n = 0, 0
}
