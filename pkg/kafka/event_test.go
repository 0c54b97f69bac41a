package kafka

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	payload := map[string]any{"comment_id": "c-1", "approved": true}
	ev, err := NewEvent("comment.approved", "c-1", "comment", "ramen-directory", payload)
	require.NoError(t, err)

	_, err = uuid.Parse(ev.EventID)
	assert.NoError(t, err, "event ID should be a UUID")
	assert.Equal(t, "comment.approved", ev.EventType)
	assert.Equal(t, "c-1", ev.AggregateID)
	assert.Equal(t, 1, ev.Version)
	assert.False(t, ev.Timestamp.IsZero())
}

func TestEvent_RoundTrip(t *testing.T) {
	ev, err := NewEvent("comment.reported", "c-2", "comment", "ramen-directory",
		map[string]string{"reason": "off-topic spam"})
	require.NoError(t, err)
	ev.WithCorrelationID("corr-1").WithMetadata("moderator", "admin-1")

	data, err := ev.Marshal()
	require.NoError(t, err)

	decoded, err := UnmarshalEvent(data)
	require.NoError(t, err)
	assert.Equal(t, ev.EventID, decoded.EventID)
	assert.Equal(t, "corr-1", decoded.CorrelationID)
	assert.Equal(t, "admin-1", decoded.Metadata["moderator"])

	var payload map[string]string
	require.NoError(t, decoded.UnmarshalData(&payload))
	assert.Equal(t, "off-topic spam", payload["reason"])
}
