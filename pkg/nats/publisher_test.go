package nats

import (
	"testing"

	"ai-finance-assistant-be/pkg/events"

	"github.com/stretchr/testify/assert"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "events.TURN_COMPLETED", Subject(events.TurnCompleted{}))
}
