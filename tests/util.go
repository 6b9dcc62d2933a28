// Package testutil holds helpers shared by the tests of several packages.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/schoolhub/core"
	"github.com/trezcool/schoolhub/core/visitor"
	"github.com/trezcool/schoolhub/storage/database"
)

// PrepareDB returns a migrated in-memory sqlite database, closed at the end of the test.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	return db
}

func CreateVisitor(t *testing.T, repo visitor.Repository, lastSeenAt ...time.Time) visitor.Visitor {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(lastSeenAt) > 0 {
		tstamp = lastSeenAt[0].UTC()
	}
	vis, err := repo.CreateVisitor(context.Background(), visitor.Visitor{
		ID:         uuid.NewString(),
		CreatedAt:  tstamp,
		LastSeenAt: tstamp,
	})
	if err != nil {
		t.Fatalf("CreateVisitor() failed: %v", err)
	}
	return vis
}

// LogEntry is one message recorded by Logger.
type LogEntry struct {
	Level string
	Msg   string
	Args  []interface{}
}

// Logger records what it is asked to log.
type Logger struct {
	mutex   sync.Mutex
	entries []LogEntry
}

var _ core.Logger = (*Logger)(nil)

func (l *Logger) log(level, msg string, args []interface{}) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.entries = append(l.entries, LogEntry{Level: level, Msg: msg, Args: args})
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log("debug", msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log("info", msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log("warn", msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log("error", msg, args) }
func (l *Logger) Fatal(msg string, args ...interface{}) {
	l.log("fatal", msg, args)
	panic(fmt.Sprintf("fatal: %s", msg))
}

// Entries returns the entries logged at level, all of them if level is empty.
func (l *Logger) Entries(level string) []LogEntry {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	entries := make([]LogEntry, 0, len(l.entries))
	for _, e := range l.entries {
		if level == "" || e.Level == level {
			entries = append(entries, e)
		}
	}
	return entries
}
