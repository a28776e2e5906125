package voicecmd

import (
	"bytes"
	"testing"
)

func TestChunkRing(t *testing.T) {
	t.Parallel()

	r := newChunkRing(3, 2)
	if r.size() != 0 || len(r.appendTo(nil)) != 0 {
		t.Fatal("new ring is not empty")
	}

	src := []byte{1, 1}
	r.push(src)
	src[0] = 9 // the ring owns its copy
	r.push([]byte{2, 2})
	if got, want := r.appendTo(nil), []byte{1, 1, 2, 2}; !bytes.Equal(got, want) {
		t.Fatalf("appendTo = %v, want %v", got, want)
	}

	for i := byte(3); i <= 5; i++ {
		r.push([]byte{i, i})
	}
	if got, want := r.appendTo([]byte{0}), []byte{0, 3, 3, 4, 4, 5, 5}; !bytes.Equal(got, want) {
		t.Fatalf("appendTo = %v, want %v", got, want)
	}
	if r.size() != 6 {
		t.Fatalf("size = %d, want 6", r.size())
	}

	r.reset()
	r.push([]byte{7, 7})
	if got, want := r.appendTo(nil), []byte{7, 7}; !bytes.Equal(got, want) {
		t.Fatalf("after reset appendTo = %v, want %v", got, want)
	}
}

func TestChunkRing_ZeroCapacity(t *testing.T) {
	t.Parallel()

	r := newChunkRing(0, 4)
	r.push([]byte{1, 2, 3, 4})
	if r.size() != 0 || len(r.appendTo(nil)) != 0 {
		t.Fatal("zero-capacity ring kept data")
	}
}
