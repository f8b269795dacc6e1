package engine

// Board is the global broadcast message board. Writes are buffered during a
// round and become visible to readers only from the following round, matching
// the "data is not written until the end of the turn" contract.
type Board struct {
	channels int
	visible  map[int]int64
	pending  map[int]int64
}

func NewBoard(channels int) *Board {
	return &Board{
		channels: channels,
		visible:  map[int]int64{},
		pending:  map[int]int64{},
	}
}

func (b *Board) Channels() int { return b.channels }

func (b *Board) ValidChannel(ch int) bool {
	return ch >= 0 && ch < b.channels
}

// Read returns the value visible on a channel this round. Unwritten channels
// read as zero.
func (b *Board) Read(ch int) int64 {
	return b.visible[ch]
}

// bufferWrite stages a write. Later writes to the same channel in the same
// round win; there is no history.
func (b *Board) bufferWrite(ch int, data int64) {
	b.pending[ch] = data
}

// flip publishes the round's buffered writes. Called once per round by the
// resolver, after all actions commit.
func (b *Board) flip() {
	for ch, v := range b.pending {
		b.visible[ch] = v
	}
	for ch := range b.pending {
		delete(b.pending, ch)
	}
}
