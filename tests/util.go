package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/trezcool/nudge/core"
	"github.com/trezcool/nudge/core/student"
)

func CreateStudent(
	t *testing.T,
	repo student.Repository,
	id, name, email string,
	sendMail bool,
	enrolledOn ...time.Time,
) student.Student {
	t.Helper()
	tstamp := time.Now().UTC()
	enrolled := tstamp
	if len(enrolledOn) > 0 {
		enrolled = enrolledOn[0].UTC()
	}
	s := student.Student{
		ID:          id,
		Name:        name,
		Email:       email,
		Preferences: student.Preferences{SendMail: sendMail},
		EnrolledOn:  enrolled,
		CreatedAt:   tstamp,
		UpdatedAt:   tstamp,
	}
	s, err := repo.CreateStudent(context.Background(), s)
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return s
}

// LogEntry is a message recorded by Logger.
type LogEntry struct {
	Level string
	Msg   string
	Args  []interface{}
}

func (e LogEntry) String() string { return fmt.Sprintf("%s %s %v", e.Level, e.Msg, e.Args) }

// Logger records log entries instead of printing them.
type Logger struct {
	mu      sync.Mutex
	entries []LogEntry
}

var _ core.Logger = (*Logger)(nil)

func (l *Logger) log(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, LogEntry{Level: level, Msg: msg, Args: args})
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log("DEBUG", msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log("INFO", msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log("WARN", msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log("ERROR", msg, args) }
func (l *Logger) Fatal(msg string, args ...interface{}) { l.log("FATAL", msg, args) }

// Entries returns the entries logged at level, or all of them if level is empty.
func (l *Logger) Entries(level string) []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	var res []LogEntry
	for _, e := range l.entries {
		if level == "" || e.Level == level {
			res = append(res, e)
		}
	}
	return res
}
