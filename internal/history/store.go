// ABOUTME: SQLite log of play attempts
// ABOUTME: Records each session's outcome by subscribing to its events
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/Resonate-Protocol/singalong-go/pkg/game"
	"github.com/Resonate-Protocol/singalong-go/pkg/song"
	"github.com/jonboulle/clockwork"
	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS plays (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id    TEXT NOT NULL UNIQUE,
	song_location TEXT NOT NULL,
	title         TEXT NOT NULL DEFAULT '',
	artist        TEXT NOT NULL DEFAULT '',
	state         TEXT NOT NULL,
	error         TEXT NOT NULL DEFAULT '',
	started_at    INTEGER NOT NULL,
	finished_at   INTEGER
)`

// writeTimeout bounds a single event write
const writeTimeout = 5 * time.Second

// Play states
const (
	StatePreparing = "preparing"
	StateReady     = "ready"
	StateFailed    = "failed"
	StateFinished  = "finished"
)

// Play is one recorded play attempt
type Play struct {
	ID           int64
	SessionID    string
	SongLocation string
	Title        string
	Artist       string
	State        string
	Error        string
	StartedAt    time.Time
	FinishedAt   time.Time // zero until finished
}

// Session is the view of a session the store records
type Session interface {
	ID() string
	SongLocation() string
	Song() *song.Song
	Subscribe(game.Handler) func()
}

// Store persists play history in SQLite
type Store struct {
	db    *sql.DB
	clock clockwork.Clock
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

// Open opens (creating if needed) the history database at path. The path
// ":memory:" opens a private in-memory database.
func Open(path string, clock clockwork.Clock) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("history path is required")
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path)
	}
	dsn += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single connection keeps :memory: databases shared and serializes
	// writes from event handlers
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db, clock: clock}, nil
}

// Close closes the database
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts a row for the session and keeps it updated from the
// session's events. The returned function stops recording.
func (s *Store) Record(ctx context.Context, sess Session) (func(), error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO plays (session_id, song_location, state, started_at) VALUES (?, ?, ?, ?)`,
		sess.ID(), sess.SongLocation(), StatePreparing, toMillis(s.clock.Now()))
	if err != nil {
		return nil, fmt.Errorf("insert play: %w", err)
	}

	unsubscribe := sess.Subscribe(func(ev game.Event) {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		if err := s.apply(ctx, sess, ev); err != nil {
			log.Printf("History update failed for %s: %v", sess.ID(), err)
		}
	})

	return unsubscribe, nil
}

// apply writes the effect of one event
func (s *Store) apply(ctx context.Context, sess Session, ev game.Event) error {
	var err error

	switch ev.Kind {
	case game.EventReady:
		var title, artist string
		if sng := sess.Song(); sng != nil {
			title, artist = sng.Title, sng.Artist
		}
		_, err = s.db.ExecContext(ctx,
			`UPDATE plays SET state = ?, title = ?, artist = ? WHERE session_id = ?`,
			StateReady, title, artist, sess.ID())

	case game.EventError:
		msg := ""
		if ev.Err != nil {
			msg = ev.Err.Error()
		}
		_, err = s.db.ExecContext(ctx,
			`UPDATE plays SET state = ?, error = ? WHERE session_id = ?`,
			StateFailed, msg, sess.ID())

	case game.EventFinished:
		_, err = s.db.ExecContext(ctx,
			`UPDATE plays SET state = ?, finished_at = ? WHERE session_id = ?`,
			StateFinished, toMillis(s.clock.Now()), sess.ID())
	}

	return err
}

// Get returns the play recorded for a session
func (s *Store) Get(ctx context.Context, sessionID string) (Play, error) {
	row := s.db.QueryRowContext(ctx, selectPlays+` WHERE session_id = ?`, sessionID)
	return scanPlay(row)
}

// Recent returns up to limit plays, newest first
func (s *Store) Recent(ctx context.Context, limit int) ([]Play, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, selectPlays+` ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query plays: %w", err)
	}
	defer rows.Close()

	var plays []Play
	for rows.Next() {
		p, err := scanPlay(rows)
		if err != nil {
			return nil, err
		}
		plays = append(plays, p)
	}
	return plays, rows.Err()
}

const selectPlays = `SELECT id, session_id, song_location, title, artist, state, error, started_at, finished_at FROM plays`

type scanner interface {
	Scan(dest ...any) error
}

func scanPlay(row scanner) (Play, error) {
	var (
		p        Play
		started  int64
		finished sql.NullInt64
	)
	err := row.Scan(&p.ID, &p.SessionID, &p.SongLocation, &p.Title, &p.Artist, &p.State, &p.Error, &started, &finished)
	if err != nil {
		return Play{}, fmt.Errorf("scan play: %w", err)
	}

	p.StartedAt = fromMillis(started)
	if finished.Valid {
		p.FinishedAt = fromMillis(finished.Int64)
	}
	return p, nil
}
