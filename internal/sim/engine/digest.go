package engine

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"sort"
)

// digest hashes the committed world state after a round. Two matches with the
// same seed and the same player logic must produce identical digests every
// round; replay verification and the determinism tests rely on this.
func (m *Match) digest() string {
	w := m.world
	h := sha256.New()
	var tmp [8]byte

	digestWriteI64(h, &tmp, int64(w.round))
	digestWriteI64(h, &tmp, int64(w.nextID))
	h.Write([]byte{boolByte(w.running), boolByte(w.winnerSet), byte(w.winner)})

	for _, id := range w.order {
		r := w.robots[id]
		digestWriteI64(h, &tmp, int64(r.id))
		h.Write([]byte{byte(r.team)})
		h.Write([]byte(r.def.ID))
		digestWriteI64(h, &tmp, int64(r.loc.X))
		digestWriteI64(h, &tmp, int64(r.loc.Y))
		digestWriteF64(h, &tmp, r.energon)
		digestWriteF64(h, &tmp, r.shields)
		digestWriteI64(h, &tmp, int64(r.activeAtRound))
		for _, c := range r.components {
			h.Write([]byte(c.def.ID))
			h.Write([]byte{boolByte(c.active)})
			digestWriteI64(h, &tmp, int64(c.roundsUntilIdle))
		}
	}

	mineLocs := make([]MapLoc, 0, len(w.mines))
	for loc := range w.mines {
		mineLocs = append(mineLocs, loc)
	}
	sort.Slice(mineLocs, func(i, j int) bool {
		if mineLocs[i].Y != mineLocs[j].Y {
			return mineLocs[i].Y < mineLocs[j].Y
		}
		return mineLocs[i].X < mineLocs[j].X
	})
	for _, loc := range mineLocs {
		digestWriteI64(h, &tmp, int64(loc.X))
		digestWriteI64(h, &tmp, int64(loc.Y))
		h.Write([]byte{byte(w.mines[loc])})
	}

	digestBoard(h, &tmp, w.board)

	for idx := 0; idx < 2; idx++ {
		digestWriteF64(h, &tmp, w.teamPower[idx])
		ups := make([]string, 0, len(w.research[idx]))
		for u := range w.research[idx] {
			ups = append(ups, u)
		}
		sort.Strings(ups)
		for _, u := range ups {
			h.Write([]byte(u))
			digestWriteI64(h, &tmp, int64(w.research[idx][u]))
		}
		for _, v := range w.memory.current[idx] {
			digestWriteI64(h, &tmp, v)
		}
	}

	return hex.EncodeToString(h.Sum(nil))
}

func digestBoard(h hashWriter, tmp *[8]byte, b *Board) {
	chans := make([]int, 0, len(b.visible))
	for ch, v := range b.visible {
		if v != 0 {
			chans = append(chans, ch)
		}
	}
	sort.Ints(chans)
	for _, ch := range chans {
		digestWriteI64(h, tmp, int64(ch))
		digestWriteI64(h, tmp, b.visible[ch])
	}
}

type hashWriter interface {
	Write(p []byte) (n int, err error)
}

func digestWriteU64(h hashWriter, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteI64(h hashWriter, tmp *[8]byte, v int64) {
	digestWriteU64(h, tmp, uint64(v))
}

func digestWriteF64(h hashWriter, tmp *[8]byte, v float64) {
	digestWriteU64(h, tmp, math.Float64bits(v))
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
