package models

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a queue entry.
type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// ParseStatus validates a status value coming in over the API.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusWaiting, StatusInProgress, StatusCompleted, StatusCancelled:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// QueueEntry is one patient's position in one clinic's queue.
//
// EstimatedWait is derived on every read and never authoritative;
// persisted values are at best a stale cache.
type QueueEntry struct {
	ID          int64  `json:"id"`
	ClinicID    int64  `json:"clinic_id"`
	PatientID   int64  `json:"patient_id"`
	QueueNumber int    `json:"queue_number"`
	Priority    int    `json:"priority"`
	Status      Status `json:"status"`
	IsPaid      bool   `json:"is_paid"`

	// EstimatedWait is in minutes.
	EstimatedWait int `json:"estimated_wait_time"`

	CheckInTime time.Time  `json:"check_in_time"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty"`

	Vitals      string `json:"vitals,omitempty"`
	VisitReason string `json:"visit_reason,omitempty"`
}
