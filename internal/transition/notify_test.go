package transition

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reason string

func (r reason) Error() string           { return string(r) }
func (r reason) RejectionReason() string { return string(r) }

func TestClassify(t *testing.T) {
	id := uuid.New()

	err := classify(id, fmt.Errorf("wrapped: %w", reason("stage requires a manager")))
	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "stage requires a manager", rejected.Reason)
	assert.Equal(t, id, rejected.CandidateID)

	err = classify(id, fmt.Errorf("call failed: %w", context.DeadlineExceeded))
	var network *NetworkError
	require.ErrorAs(t, err, &network)
	assert.True(t, network.TimedOut)
	assert.Contains(t, err.Error(), "timed out")

	err = classify(id, errors.New("connection refused"))
	require.ErrorAs(t, err, &network)
	assert.False(t, network.TimedOut)
	assert.Contains(t, err.Error(), "could not reach server")
}

func TestNewNotification(t *testing.T) {
	id := uuid.New()

	n := newNotification(id, "Ada", &RejectedError{CandidateID: id, Reason: "closed"})
	assert.Equal(t, NotificationRejected, n.Kind)
	assert.Equal(t, "Server rejected the move of Ada: closed", n.Message)
	assert.False(t, n.At.IsZero())

	n = newNotification(id, "", &NetworkError{CandidateID: id, TimedOut: true})
	assert.Equal(t, NotificationNetwork, n.Kind)
	assert.Equal(t, id.String(), n.CandidateName)
	assert.Contains(t, n.Message, "in time")

	n = newNotification(id, "Ada", &NetworkError{CandidateID: id})
	assert.Contains(t, n.Message, "Could not reach server")
}

func TestInbox_DrainAndTrim(t *testing.T) {
	inbox := NewInbox(2)
	for i := range 3 {
		inbox.Notify(Notification{Message: fmt.Sprintf("n%d", i)})
	}

	got := inbox.Drain()
	require.Len(t, got, 2)
	assert.Equal(t, "n1", got[0].Message)
	assert.Equal(t, "n2", got[1].Message)
	assert.Empty(t, inbox.Drain())
}

func TestFanout(t *testing.T) {
	a, b := NewInbox(0), NewInbox(0)
	f := Fanout{a, nil, b}

	f.Notify(Notification{Message: "hello"})

	assert.Len(t, a.Drain(), 1)
	assert.Len(t, b.Drain(), 1)
}
