package engine

// TeamMemory is the fixed-length per-team store carried across successive
// matches in a series. "old" is the read-only array inherited from the
// previous match; "current" is what this match writes and hands to the next.
type TeamMemory struct {
	length  int
	current [2][]int64
	old     [2][]int64
}

// NewTeamMemory builds the store. old may be nil or of the wrong length
// (e.g. first match of a series, or a tuning change between matches); it is
// zero-padded or truncated to length, never mutated.
func NewTeamMemory(length int, old [2][]int64) *TeamMemory {
	m := &TeamMemory{length: length}
	for t := 0; t < 2; t++ {
		m.current[t] = make([]int64, length)
		m.old[t] = make([]int64, length)
		copy(m.old[t], old[t])
	}
	return m
}

func (m *TeamMemory) Length() int { return m.length }

// Old returns the memory inherited from the previous match. The returned
// slice is a copy; the inherited array is never mutated after construction.
func (m *TeamMemory) Old(t Team) []int64 {
	out := make([]int64, m.length)
	copy(out, m.old[t.index()])
	return out
}

// Current returns a copy of the memory being written this match.
func (m *TeamMemory) Current(t Team) []int64 {
	out := make([]int64, m.length)
	copy(out, m.current[t.index()])
	return out
}

// Snapshot returns copies of both teams' current arrays, for persisting to
// the next match in the series.
func (m *TeamMemory) Snapshot() [2][]int64 {
	var out [2][]int64
	for t := 0; t < 2; t++ {
		out[t] = make([]int64, m.length)
		copy(out[t], m.current[t])
	}
	return out
}

// Write replaces current[team][index] unconditionally. Last write wins.
// An out-of-bounds index is an invariant violation, not a player error.
func (m *TeamMemory) Write(t Team, index int, value int64) error {
	if index < 0 || index >= m.length {
		return fatalf("team memory index %d out of range [0,%d)", index, m.length)
	}
	m.current[t.index()][index] = value
	return nil
}

// WriteMasked sets only the bits of current[team][index] selected by mask.
func (m *TeamMemory) WriteMasked(t Team, index int, value, mask int64) error {
	if index < 0 || index >= m.length {
		return fatalf("team memory index %d out of range [0,%d)", index, m.length)
	}
	cur := m.current[t.index()][index]
	m.current[t.index()][index] = (cur &^ mask) | (value & mask)
	return nil
}

func (t Team) index() int {
	if t == TeamB {
		return 1
	}
	return 0
}
