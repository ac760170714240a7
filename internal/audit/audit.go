package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Action names recorded for host commands that change an instance.
const (
	ActionStart       = "start"
	ActionStop        = "stop"
	ActionCreate      = "create"
	ActionWriteConfig = "write_properties"
)

// Event is one row of instance_events.
type Event struct {
	ID        string `db:"id"`
	Folder    string `db:"folder"`
	Action    string `db:"action"`
	OK        bool   `db:"ok"`
	Error     string `db:"error"`
	Timestamp int64  `db:"timestamp"` // unix nanoseconds
}

func (e Event) Time() time.Time { return time.Unix(0, e.Timestamp).UTC() }

// Log records what was done to which instance.
type Log struct {
	db *sqlx.DB
}

// Open connects to (and creates) the SQLite database at path.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("mkdir audit dir: %w", err)
	}
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open audit db %q: %w", path, err)
	}
	l, err := New(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

// New wraps an existing connection, creating the schema if needed.
func New(db *sqlx.DB) (*Log, error) {
	if err := DBInit(db); err != nil {
		return nil, fmt.Errorf("init audit schema: %w", err)
	}
	return &Log{db: db}, nil
}

func DBInit(db *sqlx.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS instance_events (
		id TEXT PRIMARY KEY,
		folder TEXT NOT NULL,
		action TEXT NOT NULL,
		ok BOOLEAN NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		timestamp INTEGER NOT NULL
	)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_instance_events_folder ON instance_events(folder, timestamp)`)
	return err
}

// Record stores the outcome of action on folder. actionErr may be nil.
func (l *Log) Record(folder, action string, actionErr error) error {
	ev := Event{
		ID:        uuid.New().String(),
		Folder:    folder,
		Action:    action,
		OK:        actionErr == nil,
		Timestamp: time.Now().UTC().UnixNano(),
	}
	if actionErr != nil {
		ev.Error = actionErr.Error()
	}

	_, err := l.db.NamedExec(`
		INSERT INTO instance_events (id, folder, action, ok, error, timestamp)
		VALUES (:id, :folder, :action, :ok, :error, :timestamp)`, ev)
	return err
}

// ForFolder returns the latest events for folder, newest first.
func (l *Log) ForFolder(folder string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 20
	}
	var events []Event
	err := l.db.Select(&events,
		"SELECT * FROM instance_events WHERE folder = $1 ORDER BY timestamp DESC LIMIT $2",
		folder, limit)
	return events, err
}

func (l *Log) Close() error {
	return l.db.Close()
}
