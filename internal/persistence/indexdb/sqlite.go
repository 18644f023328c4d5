// Package indexdb maintains a sqlite read model beside the binary snapshots
// so ledgers and the care history stay queryable with ordinary SQL tooling.
// Writes are funneled through a single goroutine; the simulation never waits
// on the database.
package indexdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type reqKind int

const (
	reqLedger reqKind = iota + 1
	reqCare
	reqSnapshot
	reqFlush
)

type req struct {
	kind reqKind

	ledger   ledgerRow
	care     careRow
	snapshot snapshotRow
	flush    chan struct{}
}

type ledgerRow struct {
	PlayerID string
	Name     string
	Score    int
	Coins    int
	Seeds    int
}

type careRow struct {
	Actor   string
	Message string
	TsMs    int64
}

type snapshotRow struct {
	SavedAtMs int64
	Path      string
	Plants    int
	Ledgers   int
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
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

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ledgers (
			player_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			score INTEGER NOT NULL,
			coins INTEGER NOT NULL,
			seeds INTEGER NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_ledgers_score ON ledgers(score DESC);`,
		`CREATE TABLE IF NOT EXISTS care_log (
			ts_ms INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			actor TEXT NOT NULL,
			message TEXT NOT NULL,
			PRIMARY KEY (ts_ms, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_care_actor ON care_log(actor, ts_ms);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			saved_at_ms INTEGER PRIMARY KEY,
			path TEXT NOT NULL,
			plants INTEGER NOT NULL,
			ledgers INTEGER NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	if _, err := db.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// UpsertLedger enqueues a ledger row. Drops silently when the writer is
// behind; snapshots remain the source of truth.
func (s *SQLiteIndex) UpsertLedger(playerID, name string, score, coins, seeds int) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqLedger, ledger: ledgerRow{PlayerID: playerID, Name: name, Score: score, Coins: coins, Seeds: seeds}}:
	default:
	}
}

func (s *SQLiteIndex) RecordCare(actor, message string, tsMs int64) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqCare, care: careRow{Actor: actor, Message: message, TsMs: tsMs}}:
	default:
	}
}

func (s *SQLiteIndex) RecordSnapshot(path string, savedAtMs int64, plants, ledgers int) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqSnapshot, snapshot: snapshotRow{SavedAtMs: savedAtMs, Path: path, Plants: plants, Ledgers: ledgers}}:
	default:
	}
}

// TopLedger is a leaderboard row read back from the index.
type TopLedger struct {
	PlayerID string
	Name     string
	Score    int
	Coins    int
	Seeds    int
}

// TopLedgers reads the n highest scores. Runs against the live connection,
// so pending queued writes may not be visible yet.
func (s *SQLiteIndex) TopLedgers(ctx context.Context, n int) ([]TopLedger, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT player_id, name, score, coins, seeds FROM ledgers ORDER BY score DESC, name ASC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TopLedger
	for rows.Next() {
		var l TopLedger
		if err := rows.Scan(&l.PlayerID, &l.Name, &l.Score, &l.Coins, &l.Seeds); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Flush blocks until every request queued before the call is applied and
// committed. Intended for tests and shutdown.
func (s *SQLiteIndex) Flush() {
	if s == nil || s.closed.Load() {
		return
	}
	done := make(chan struct{})
	s.ch <- req{kind: reqFlush, flush: done}
	<-done
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertLedger, _ := s.db.Prepare(`INSERT OR REPLACE INTO ledgers(player_id,name,score,coins,seeds,updated_at) VALUES(?,?,?,?,?,?)`)
	insertCare, _ := s.db.Prepare(`INSERT OR REPLACE INTO care_log(ts_ms,seq,actor,message) VALUES(?,?,?,?)`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(saved_at_ms,path,plants,ledgers) VALUES(?,?,?,?)`)
	defer func() {
		if insertLedger != nil {
			_ = insertLedger.Close()
		}
		if insertCare != nil {
			_ = insertCare.Close()
		}
		if insertSnapshot != nil {
			_ = insertSnapshot.Close()
		}
	}()

	var (
		tx          *sql.Tx
		opCount     int
		lastCommit  = time.Now()
		commitEvery = 500
		commitWait  = 2 * time.Second

		lastCareTs int64
		careSeq    int
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for r := range s.ch {
		if r.kind == reqFlush {
			commit()
			close(r.flush)
			continue
		}
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqLedger:
			l := r.ledger
			if insertLedger != nil {
				now := time.Now().UTC().Format(time.RFC3339Nano)
				if _, err := tx.Stmt(insertLedger).Exec(l.PlayerID, l.Name, l.Score, l.Coins, l.Seeds, now); err != nil {
					rollback()
					continue
				}
				opCount++
			}

		case reqCare:
			c := r.care
			if c.TsMs != lastCareTs {
				lastCareTs = c.TsMs
				careSeq = 0
			}
			seq := careSeq
			careSeq++
			if insertCare != nil {
				if _, err := tx.Stmt(insertCare).Exec(c.TsMs, seq, c.Actor, c.Message); err != nil {
					rollback()
					continue
				}
				opCount++
			}

		case reqSnapshot:
			sn := r.snapshot
			if insertSnapshot != nil {
				if _, err := tx.Stmt(insertSnapshot).Exec(sn.SavedAtMs, sn.Path, sn.Plants, sn.Ledgers); err != nil {
					rollback()
					continue
				}
				opCount++
			}
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitWait {
			commit()
		}
	}

	commit()
}
