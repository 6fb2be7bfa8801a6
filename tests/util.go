package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/trezcool/copo/core"
	"github.com/trezcool/copo/core/user"
)

// CreateUser stores a user directly through the repository, skipping validation & welcome mails.
func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd, role string,
	courseIDs ...string,
) user.User {
	t.Helper()

	usr := user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	switch role {
	case user.RoleStudent:
		usr.Semester = 1
		usr.CourseIDs = courseIDs
	case user.RoleTeacher:
		usr.AssignedCourses = courseIDs
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// Logger is a core.Logger that records messages instead of printing them.
type Logger struct {
	mu       sync.Mutex
	Messages []string
}

var _ core.Logger = (*Logger)(nil)

func (l *Logger) record(msg string) {
	l.mu.Lock()
	l.Messages = append(l.Messages, msg)
	l.mu.Unlock()
}

func (l *Logger) Debug(msg string, _ ...interface{}) { l.record(msg) }
func (l *Logger) Info(msg string, _ ...interface{})  { l.record(msg) }
func (l *Logger) Warn(msg string, _ ...interface{})  { l.record(msg) }
func (l *Logger) Error(msg string, _ ...interface{}) { l.record(msg) }
func (l *Logger) Fatal(msg string, _ ...interface{}) { l.record(msg) }
