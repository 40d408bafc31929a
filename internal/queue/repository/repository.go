package repository

import (
	"context"
	"errors"
	"time"

	"github.com/clinicq/clinicq-backend/internal/queue/models"
)

var (
	// ErrNotFound is returned when a patient, clinic or entry id does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConstraint is returned when a foreign key (clinic/patient) is invalid
	// or a uniqueness constraint is violated.
	ErrConstraint = errors.New("constraint violation")
	// ErrBusy is returned by StartConsultation when the clinic already has an
	// entry in progress, or when the entry is no longer waiting.
	ErrBusy = errors.New("consultation already in progress")
)

// Repository is the persistent store of queue entries scoped by clinic.
//
// Listing order is part of the contract: entries come back sorted by
// (priority descending, queue number ascending), which is the order the
// wait-time estimator assumes.
//
// Queue number assignment happens inside RegisterPatient and must be atomic
// with respect to concurrent registrations for the same clinic: numbers per
// clinic are strictly increasing and never reused, even across removals.
type Repository interface {
	// RegisterPatient creates the patient record and a waiting entry with the
	// next queue number for the clinic, atomically.
	RegisterPatient(ctx context.Context, patient *models.Patient, clinicID int64, visitReason string) (*models.Patient, *models.QueueEntry, error)

	ListByClinic(ctx context.Context, clinicID int64) ([]models.QueueEntry, error)
	GetEntry(ctx context.Context, id int64) (*models.QueueEntry, error)

	// UpdateStatus persists a status change together with its timestamp side
	// effects. Nil start/end leave the stored values untouched.
	UpdateStatus(ctx context.Context, id int64, status models.Status, startTime, endTime *time.Time) (*models.QueueEntry, error)

	SetPaid(ctx context.Context, id int64) (*models.QueueEntry, error)
	UpdatePriority(ctx context.Context, id int64, priority int) (*models.QueueEntry, error)
	SetVitals(ctx context.Context, id int64, vitals, visitReason string) (*models.QueueEntry, error)

	// StartConsultation moves a waiting entry to in-progress, stamping
	// startTime. The busy check and the write are one atomic step under the
	// store's lock or transaction, so at most one entry per clinic can be in
	// progress no matter how many callers race. Fails with ErrBusy when the
	// clinic already has an in-progress entry or the entry is not waiting.
	StartConsultation(ctx context.Context, id int64, startTime time.Time) (*models.QueueEntry, error)

	ListClinics(ctx context.Context) ([]models.Clinic, error)
	GetClinic(ctx context.Context, id int64) (*models.Clinic, error)
}
