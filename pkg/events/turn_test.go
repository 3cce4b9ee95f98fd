package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTurnCompleted_Payload(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	var ev Event = TurnCompleted{
		SessionID:  "s1",
		Action:     "calc",
		RouteFrom:  "fastpath",
		Tools:      []string{"financial_calculator"},
		Steps:      1,
		StopReason: "final_answer",
		OccurredAt: at,
	}

	assert.Equal(t, "TURN_COMPLETED", ev.EventType())
	assert.Equal(t, at, ev.Timestamp())
	p := ev.Payload()
	assert.Equal(t, "s1", p["session_id"])
	assert.Equal(t, []string{"financial_calculator"}, p["tools"])
	assert.Equal(t, false, p["early_stop"])

	forced := TurnCompleted{StopReason: "forced_conclusion"}.Payload()
	assert.Equal(t, true, forced["early_stop"])
}
