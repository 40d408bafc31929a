package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/clinicq/clinicq-backend/internal/queue/models"
)

// ErrInvalidTransition is returned when a status change is not allowed from
// the entry's current state.
var ErrInvalidTransition = errors.New("invalid status transition")

// transitions is the full lifecycle: waiting -> in-progress -> completed,
// with cancellation (the staff "skip" action) possible from either
// non-terminal state.
var transitions = map[models.Status][]models.Status{
	models.StatusWaiting:    {models.StatusInProgress, models.StatusCancelled},
	models.StatusInProgress: {models.StatusCompleted, models.StatusCancelled},
}

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to models.Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ApplyTransition mutates the entry to the target status and stamps the
// lifecycle timestamps. The entry is left untouched when the transition is
// illegal.
func ApplyTransition(e *models.QueueEntry, to models.Status, now time.Time) error {
	if !CanTransition(e.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, e.Status, to)
	}

	e.Status = to
	switch to {
	case models.StatusInProgress:
		t := now
		e.StartTime = &t
	case models.StatusCompleted, models.StatusCancelled:
		t := now
		e.EndTime = &t
	}
	return nil
}
