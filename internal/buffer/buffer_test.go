package buffer

import "testing"

func TestAppendSaturates(t *testing.T) {
	b := New[byte](4)
	for i := 0; i < 10; i++ {
		b.Append(byte('a' + i))
	}
	if b.Len() != 4 {
		t.Fatalf("expected length 4 after saturating append, got %d", b.Len())
	}
	if b.Cap() != 4 {
		t.Errorf("capacity changed: got %d", b.Cap())
	}
	if got := String(b); got != "abcd" {
		t.Errorf("expected first four elements kept, got %q", got)
	}
	// Overflow must be silent: appending past capacity changes nothing.
	b.Append('z')
	if b.Len() != 4 || b.Get(3) != 'd' {
		t.Errorf("append past capacity mutated the buffer")
	}
}

func TestGetBeyondLengthIsZero(t *testing.T) {
	b := NewBytes(8, []byte("hi"))
	if b.Get(0) != 'h' || b.Get(1) != 'i' {
		t.Fatalf("stored elements not returned")
	}
	for _, i := range []int{2, 7, 8, 100, -1} {
		if b.Get(i) != 0 {
			t.Errorf("Get(%d) = %d, want zero", i, b.Get(i))
		}
	}
}

func TestFreshBufferIsEmpty(t *testing.T) {
	b := New[bool](16)
	if b.Len() != 0 {
		t.Fatalf("fresh buffer has length %d", b.Len())
	}
	if b.Get(0) {
		t.Errorf("fresh buffer position not zero-valued")
	}
}

func TestNewBytesTruncates(t *testing.T) {
	b := NewBytes(3, []byte("hello"))
	if b.Len() != 3 {
		t.Fatalf("expected truncation to 3, got %d", b.Len())
	}
	if got := String(b); got != "hel" {
		t.Errorf("got %q", got)
	}
}

func TestSliceCopies(t *testing.T) {
	b := NewBytes(8, []byte("abc"))
	s := b.Slice()
	if len(s) != 3 {
		t.Fatalf("slice length %d", len(s))
	}
	s[0] = 'z'
	if b.Get(0) != 'a' {
		t.Errorf("Slice aliases internal storage")
	}
}
