package events

import "time"

const TypeTurnCompleted = "TURN_COMPLETED"

// TurnCompleted is emitted once per answered chat turn.
type TurnCompleted struct {
	SessionID  string
	Action     string
	RouteFrom  string
	Tools      []string
	Steps      int
	StopReason string
	OccurredAt time.Time
}

func (e TurnCompleted) EventType() string { return TypeTurnCompleted }

func (e TurnCompleted) Payload() map[string]interface{} {
	return map[string]interface{}{
		"session_id":  e.SessionID,
		"action":      e.Action,
		"route_from":  e.RouteFrom,
		"tools":       e.Tools,
		"steps":       e.Steps,
		"stop_reason": e.StopReason,
		"early_stop":  e.StopReason != "final_answer",
	}
}

func (e TurnCompleted) Timestamp() time.Time { return e.OccurredAt }
