package tasks

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task type names
const (
	TypeMeetingProcess = "meeting:process"
)

// MeetingProcessPayload identifies a meeting whose call has ended and whose
// artifacts are ready to be finalized.
type MeetingProcessPayload struct {
	MeetingID uuid.UUID `json:"meeting_id"`
}

func NewMeetingProcessTask(payload MeetingProcessPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeMeetingProcess, data), nil
}
