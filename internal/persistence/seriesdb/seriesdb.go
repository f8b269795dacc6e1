// Package seriesdb stores series state in SQLite: the match index and the
// team memory carried from one match of a series to the next. The engine
// never touches it; the host reads memory before NewMatch and writes the
// snapshot back after the match ends.
package seriesdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

// MatchRow is one finished match in a series.
type MatchRow struct {
	Series   string
	MatchNo  int
	Seed     int64
	Map      string
	Winner   string
	Reason   string
	Rounds   int
	LogPath  string
	PlayedAt string
}

func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("seriesdb: empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, p := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	} {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS series (
			id TEXT PRIMARY KEY,
			team_a TEXT NOT NULL,
			team_b TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS matches (
			series TEXT NOT NULL,
			match_no INTEGER NOT NULL,
			seed INTEGER NOT NULL,
			map TEXT NOT NULL,
			winner TEXT NOT NULL,
			reason TEXT NOT NULL,
			rounds INTEGER NOT NULL,
			log_path TEXT NOT NULL,
			played_at TEXT NOT NULL,
			PRIMARY KEY (series, match_no)
		);`,
		`CREATE TABLE IF NOT EXISTS team_memory (
			series TEXT NOT NULL,
			team INTEGER NOT NULL,
			idx INTEGER NOT NULL,
			value INTEGER NOT NULL,
			PRIMARY KEY (series, team, idx)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

// EnsureSeries registers the series if it does not exist yet.
func (s *Store) EnsureSeries(id, teamA, teamB string) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO series (id, team_a, team_b, created_at) VALUES (?, ?, ?, ?)`,
		id, teamA, teamB, time.Now().UTC().Format(time.RFC3339))
	return err
}

// RecordMatch appends one finished match to the index.
func (s *Store) RecordMatch(m MatchRow) error {
	if m.PlayedAt == "" {
		m.PlayedAt = time.Now().UTC().Format(time.RFC3339)
	}
	_, err := s.db.Exec(
		`INSERT INTO matches (series, match_no, seed, map, winner, reason, rounds, log_path, played_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Series, m.MatchNo, m.Seed, m.Map, m.Winner, m.Reason, m.Rounds, m.LogPath, m.PlayedAt)
	return err
}

// Matches lists a series' finished matches in play order.
func (s *Store) Matches(series string) ([]MatchRow, error) {
	rows, err := s.db.Query(
		`SELECT series, match_no, seed, map, winner, reason, rounds, log_path, played_at
		 FROM matches WHERE series = ? ORDER BY match_no`, series)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []MatchRow
	for rows.Next() {
		var m MatchRow
		if err := rows.Scan(&m.Series, &m.MatchNo, &m.Seed, &m.Map, &m.Winner,
			&m.Reason, &m.Rounds, &m.LogPath, &m.PlayedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// NextMatchNo returns the next free match number in the series, starting at 1.
func (s *Store) NextMatchNo(series string) (int, error) {
	var n sql.NullInt64
	err := s.db.QueryRow(`SELECT MAX(match_no) FROM matches WHERE series = ?`, series).Scan(&n)
	if err != nil {
		return 0, err
	}
	return int(n.Int64) + 1, nil
}

// SaveTeamMemory replaces the series' carried memory with the end-of-match
// snapshot. Team 0 is A, team 1 is B.
func (s *Store) SaveTeamMemory(series string, mem [2][]int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec(`DELETE FROM team_memory WHERE series = ?`, series); err != nil {
		return err
	}
	for team := 0; team < 2; team++ {
		for idx, v := range mem[team] {
			if v == 0 {
				continue
			}
			if _, err := tx.Exec(
				`INSERT INTO team_memory (series, team, idx, value) VALUES (?, ?, ?, ?)`,
				series, team, idx, v); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// LoadTeamMemory returns the carried memory, zero-filled to length. A series
// with no recorded memory yields all zeros, same as a first match.
func (s *Store) LoadTeamMemory(series string, length int) ([2][]int64, error) {
	var mem [2][]int64
	mem[0] = make([]int64, length)
	mem[1] = make([]int64, length)

	rows, err := s.db.Query(
		`SELECT team, idx, value FROM team_memory WHERE series = ?`, series)
	if err != nil {
		return mem, err
	}
	defer rows.Close()
	for rows.Next() {
		var team, idx int
		var v int64
		if err := rows.Scan(&team, &idx, &v); err != nil {
			return mem, err
		}
		if team < 0 || team > 1 || idx < 0 || idx >= length {
			continue
		}
		mem[team][idx] = v
	}
	return mem, rows.Err()
}
