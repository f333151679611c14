package transition

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/pipeline-board/internal/logger"
)

// NotificationKind separates "server rejected the move" from "could not reach server".
type NotificationKind string

const (
	NotificationRejected NotificationKind = "rejected"
	NotificationNetwork  NotificationKind = "network"
)

// Notification is a transient, dismissible message about a rolled-back move.
type Notification struct {
	CandidateID   uuid.UUID        `json:"candidate_id"`
	CandidateName string           `json:"candidate_name"`
	Kind          NotificationKind `json:"kind"`
	Message       string           `json:"message"`
	At            time.Time        `json:"at"`
}

// Notifier surfaces rollbacks to the user.
type Notifier interface {
	Notify(n Notification)
}

func newNotification(candidateID uuid.UUID, name string, err error) Notification {
	if name == "" {
		name = candidateID.String()
	}
	n := Notification{CandidateID: candidateID, CandidateName: name, At: time.Now()}

	var rejected *RejectedError
	var network *NetworkError
	switch {
	case errors.As(err, &rejected):
		n.Kind = NotificationRejected
		n.Message = fmt.Sprintf("Server rejected the move of %s: %s", name, rejected.Reason)
	case errors.As(err, &network) && network.TimedOut:
		n.Kind = NotificationNetwork
		n.Message = fmt.Sprintf("Server did not confirm the move of %s in time; it was reverted", name)
	default:
		n.Kind = NotificationNetwork
		n.Message = fmt.Sprintf("Could not reach server to move %s; it was reverted", name)
	}
	return n
}

// LogNotifier writes notifications to the log.
type LogNotifier struct {
	Log *logger.Logger
}

func (l LogNotifier) Notify(n Notification) {
	logger.OrNop(l.Log).Warn(n.Message, "candidate_id", n.CandidateID, "kind", n.Kind)
}

// DefaultInboxSize is the number of notifications an Inbox retains.
const DefaultInboxSize = 50

// Inbox keeps the most recent notifications until they are drained.
type Inbox struct {
	mu    sync.Mutex
	size  int
	items []Notification
}

// NewInbox creates an inbox retaining at most size notifications.
func NewInbox(size int) *Inbox {
	if size <= 0 {
		size = DefaultInboxSize
	}
	return &Inbox{size: size}
}

func (b *Inbox) Notify(n Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append(b.items, n)
	if over := len(b.items) - b.size; over > 0 {
		b.items = append([]Notification(nil), b.items[over:]...)
	}
}

// Drain returns and clears the pending notifications, oldest first.
func (b *Inbox) Drain() []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.items
	b.items = nil
	return out
}

// Fanout forwards a notification to several notifiers.
type Fanout []Notifier

func (f Fanout) Notify(n Notification) {
	for _, target := range f {
		if target != nil {
			target.Notify(n)
		}
	}
}
