package engine

import "testing"

func TestTeamMemoryZeroPadsInheritedArrays(t *testing.T) {
	var old [2][]int64
	old[0] = []int64{1, 2, 3, 4, 5} // longer than the new length
	old[1] = []int64{9}             // shorter

	m := NewTeamMemory(3, old)
	if got := m.Old(TeamA); got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("Old(TeamA) = %v", got)
	}
	if got := m.Old(TeamB); got[0] != 9 || got[1] != 0 || got[2] != 0 {
		t.Fatalf("Old(TeamB) = %v", got)
	}
	for _, team := range []Team{TeamA, TeamB} {
		for i, v := range m.Current(team) {
			if v != 0 {
				t.Fatalf("current[%v][%d] = %d, want 0 at match start", team, i, v)
			}
		}
	}
}

func TestTeamMemoryReturnsCopies(t *testing.T) {
	m := NewTeamMemory(2, [2][]int64{})
	if err := m.Write(TeamA, 0, 5); err != nil {
		t.Fatalf("Write: %v", err)
	}
	cur := m.Current(TeamA)
	cur[0] = 99
	if got := m.Current(TeamA)[0]; got != 5 {
		t.Fatalf("mutating a returned slice leaked into the store: %d", got)
	}
	snap := m.Snapshot()
	snap[0][1] = 77
	if got := m.Current(TeamA)[1]; got != 0 {
		t.Fatalf("mutating a snapshot leaked into the store: %d", got)
	}
}

func TestTeamMemoryMaskedWritePreservesUnselectedBits(t *testing.T) {
	m := NewTeamMemory(1, [2][]int64{})
	if err := m.Write(TeamB, 0, 0x70F0); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := m.WriteMasked(TeamB, 0, 0x00FF, 0x0F0F); err != nil {
		t.Fatalf("WriteMasked: %v", err)
	}
	// Bits under the mask come from the value, the rest stay.
	want := int64(0x70F0)&^0x0F0F | 0x00FF&0x0F0F
	if got := m.Current(TeamB)[0]; got != want {
		t.Fatalf("masked write = %#x, want %#x", got, want)
	}
}

func TestTeamMemoryIndexBoundsAreFatal(t *testing.T) {
	m := NewTeamMemory(4, [2][]int64{})
	for _, idx := range []int{-1, 4, 100} {
		if err := m.Write(TeamA, idx, 1); err == nil {
			t.Fatalf("Write(%d) accepted an out-of-range index", idx)
		}
		if err := m.WriteMasked(TeamA, idx, 1, 1); err == nil {
			t.Fatalf("WriteMasked(%d) accepted an out-of-range index", idx)
		}
	}
}
