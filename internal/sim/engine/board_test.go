package engine

import "testing"

func TestBoardWritesInvisibleUntilFlip(t *testing.T) {
	b := NewBoard(16)
	b.bufferWrite(3, 42)
	if got := b.Read(3); got != 0 {
		t.Fatalf("buffered write visible before flip: %d", got)
	}
	b.flip()
	if got := b.Read(3); got != 42 {
		t.Fatalf("Read after flip = %d, want 42", got)
	}
	// Values persist until overwritten.
	b.flip()
	if got := b.Read(3); got != 42 {
		t.Fatalf("value lost on an empty flip: %d", got)
	}
}

func TestBoardLastBufferedWriteWins(t *testing.T) {
	b := NewBoard(16)
	b.bufferWrite(7, 1)
	b.bufferWrite(7, 2)
	b.flip()
	if got := b.Read(7); got != 2 {
		t.Fatalf("Read = %d, want the later write", got)
	}
}

func TestBoardChannelValidation(t *testing.T) {
	b := NewBoard(8)
	for ch, want := range map[int]bool{-1: false, 0: true, 7: true, 8: false} {
		if got := b.ValidChannel(ch); got != want {
			t.Fatalf("ValidChannel(%d) = %v, want %v", ch, got, want)
		}
	}
}
