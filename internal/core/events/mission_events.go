package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventMissionAssigned  = "mission.assigned"
	EventMissionCompleted = "mission.completed"
)

// NewMissionAssignedEvent is published once per newly assigned user when a
// mission is created or its assignee set grows.
func NewMissionAssignedEvent(missionID, assigneeID int64, description string) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      EventMissionAssigned,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"mission_id":  missionID,
			"assignee_id": assigneeID,
			"description": description,
		},
	}
}

// NewMissionCompletedEvent is published whenever completion is toggled on.
func NewMissionCompletedEvent(missionID, completedByID int64) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      EventMissionCompleted,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"mission_id":      missionID,
			"completed_by_id": completedByID,
		},
	}
}
