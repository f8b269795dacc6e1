package seriesdb

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "series.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestTeamMemoryRoundTrip(t *testing.T) {
	s := openTestStore(t)
	if err := s.EnsureSeries("s1", "alpha", "beta"); err != nil {
		t.Fatalf("EnsureSeries: %v", err)
	}

	mem, err := s.LoadTeamMemory("s1", 4)
	if err != nil {
		t.Fatalf("LoadTeamMemory (fresh): %v", err)
	}
	for team := 0; team < 2; team++ {
		for i, v := range mem[team] {
			if v != 0 {
				t.Fatalf("fresh memory team %d idx %d = %d, want 0", team, i, v)
			}
		}
	}

	mem[0][0] = 0xBEEF
	mem[1][3] = -7
	if err := s.SaveTeamMemory("s1", mem); err != nil {
		t.Fatalf("SaveTeamMemory: %v", err)
	}

	got, err := s.LoadTeamMemory("s1", 4)
	if err != nil {
		t.Fatalf("LoadTeamMemory: %v", err)
	}
	if got[0][0] != 0xBEEF || got[1][3] != -7 {
		t.Fatalf("memory did not round-trip: %v", got)
	}
	if got[0][1] != 0 || got[1][0] != 0 {
		t.Fatalf("untouched slots non-zero: %v", got)
	}
}

func TestSaveTeamMemoryReplaces(t *testing.T) {
	s := openTestStore(t)
	var mem [2][]int64
	mem[0] = []int64{1, 2}
	mem[1] = []int64{3, 4}
	if err := s.SaveTeamMemory("s1", mem); err != nil {
		t.Fatalf("SaveTeamMemory: %v", err)
	}
	mem[0] = []int64{9, 0}
	mem[1] = []int64{0, 0}
	if err := s.SaveTeamMemory("s1", mem); err != nil {
		t.Fatalf("SaveTeamMemory (second): %v", err)
	}
	got, err := s.LoadTeamMemory("s1", 2)
	if err != nil {
		t.Fatalf("LoadTeamMemory: %v", err)
	}
	if got[0][0] != 9 || got[0][1] != 0 || got[1][0] != 0 || got[1][1] != 0 {
		t.Fatalf("old memory leaked through: %v", got)
	}
}

func TestMatchIndex(t *testing.T) {
	s := openTestStore(t)
	if err := s.EnsureSeries("s1", "alpha", "beta"); err != nil {
		t.Fatalf("EnsureSeries: %v", err)
	}

	n, err := s.NextMatchNo("s1")
	if err != nil {
		t.Fatalf("NextMatchNo: %v", err)
	}
	if n != 1 {
		t.Fatalf("first match number = %d, want 1", n)
	}

	for i := 1; i <= 2; i++ {
		err := s.RecordMatch(MatchRow{
			Series: "s1", MatchNo: i, Seed: int64(100 + i), Map: "crossroads",
			Winner: "A", Reason: "destruction", Rounds: 50 * i, LogPath: "logs/x.jsonl.zst",
		})
		if err != nil {
			t.Fatalf("RecordMatch %d: %v", i, err)
		}
	}

	rows, err := s.Matches("s1")
	if err != nil {
		t.Fatalf("Matches: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d matches, want 2", len(rows))
	}
	if rows[0].MatchNo != 1 || rows[1].MatchNo != 2 {
		t.Fatalf("matches out of order: %+v", rows)
	}
	if rows[1].Rounds != 100 {
		t.Fatalf("rounds = %d, want 100", rows[1].Rounds)
	}

	n, err = s.NextMatchNo("s1")
	if err != nil {
		t.Fatalf("NextMatchNo: %v", err)
	}
	if n != 3 {
		t.Fatalf("next match number = %d, want 3", n)
	}
}
