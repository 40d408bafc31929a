package services

import "github.com/clinicq/clinicq-backend/internal/queue/models"

// ApplyWaitEstimates fills EstimatedWait on each entry of an already ordered
// snapshot (priority descending, queue number ascending, per the repository
// contract).
//
// The k-th still-waiting entry (0-indexed) gets (k+1) * avgMinutes. Entries
// in any other state are not ahead of anyone and get 0. The result is derived
// on every read and never written back as a source of truth.
func ApplyWaitEstimates(entries []models.QueueEntry, avgMinutes int) {
	position := 0
	for i := range entries {
		if entries[i].Status != models.StatusWaiting {
			entries[i].EstimatedWait = 0
			continue
		}
		entries[i].EstimatedWait = (position + 1) * avgMinutes
		position++
	}
}
