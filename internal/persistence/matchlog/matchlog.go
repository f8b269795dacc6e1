// Package matchlog persists one match as a zstd-compressed JSONL stream:
// a header entry, one entry per committed round, and an end entry. The file
// carries everything a replay needs to re-run the match and check digests.
package matchlog

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"robowar.ai/internal/protocol"
)

// Header is the first entry of every match log.
type Header struct {
	Type            string `json:"type"` // always "header"
	ProtocolVersion string `json:"protocol_version"`

	Seed  int64  `json:"seed"`
	Map   string `json:"map"`
	TeamA string `json:"team_a"`
	TeamB string `json:"team_b"`
	// Players records the player selector per team ("builtin:vanguard",
	// "lua:scripts/rusher.lua") so a replay can rebuild the same logic.
	PlayerA string `json:"player_a"`
	PlayerB string `json:"player_b"`

	RobotsDigest     string `json:"robots_digest"`
	ComponentsDigest string `json:"components_digest"`
	UpgradesDigest   string `json:"upgrades_digest"`

	OldTeamMemory [2][]int64 `json:"old_team_memory,omitempty"`
}

// RoundEntry is one committed round.
type RoundEntry struct {
	Type    string            `json:"type"` // always "round"
	Round   int               `json:"round"`
	Signals []protocol.Signal `json:"signals,omitempty"`
	Digest  string            `json:"digest"`
}

// EndEntry closes the log.
type EndEntry struct {
	Type       string     `json:"type"` // always "end"
	Winner     string     `json:"winner"`
	Reason     string     `json:"reason"`
	Rounds     int        `json:"rounds"`
	TeamMemory [2][]int64 `json:"team_memory,omitempty"`
}

// Writer appends entries to a single .jsonl.zst file.
type Writer struct {
	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

func NewWriter(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Writer{f: f, enc: enc, w: bufio.NewWriterSize(enc, 128*1024)}, nil
}

func (w *Writer) write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return errors.New("matchlog: writer closed")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

func (w *Writer) WriteHeader(h Header) error {
	h.Type = "header"
	return w.write(h)
}

func (w *Writer) WriteRound(r RoundEntry) error {
	r.Type = "round"
	return w.write(r)
}

func (w *Writer) WriteEnd(e EndEntry) error {
	e.Type = "end"
	return w.write(e)
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	var err error
	if ferr := w.w.Flush(); ferr != nil {
		err = ferr
	}
	if cerr := w.enc.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if cerr := w.f.Close(); cerr != nil && err == nil {
		err = cerr
	}
	w.f = nil
	return err
}

// Log is a fully read match log.
type Log struct {
	Header Header
	Rounds []RoundEntry
	// End is nil for a truncated log (host crashed mid-match).
	End *EndEntry
}

// Read loads an entire match log into memory. Match logs are bounded by the
// round cap, so this stays small.
func Read(path string) (*Log, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var out Log
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var probe struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(line, &probe); err != nil {
			return nil, fmt.Errorf("matchlog line %d: %w", lineNo, err)
		}
		switch probe.Type {
		case "header":
			if lineNo != 1 {
				return nil, fmt.Errorf("matchlog line %d: header not first", lineNo)
			}
			if err := json.Unmarshal(line, &out.Header); err != nil {
				return nil, fmt.Errorf("matchlog line %d: %w", lineNo, err)
			}
		case "round":
			var r RoundEntry
			if err := json.Unmarshal(line, &r); err != nil {
				return nil, fmt.Errorf("matchlog line %d: %w", lineNo, err)
			}
			out.Rounds = append(out.Rounds, r)
		case "end":
			var e EndEntry
			if err := json.Unmarshal(line, &e); err != nil {
				return nil, fmt.Errorf("matchlog line %d: %w", lineNo, err)
			}
			out.End = &e
		default:
			return nil, fmt.Errorf("matchlog line %d: unknown entry type %q", lineNo, probe.Type)
		}
	}
	if err := sc.Err(); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if out.Header.Type == "" {
		return nil, errors.New("matchlog: missing header")
	}
	return &out, nil
}
