package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/clinicq/clinicq-backend/internal/queue/models"
	"github.com/clinicq/clinicq-backend/internal/queue/repository"
)

var (
	// ErrValidation wraps malformed or missing input.
	ErrValidation = errors.New("validation failed")
	// ErrClinicBusy is returned when a waiting -> in-progress transition is
	// attempted while another entry of the same clinic is already in progress.
	ErrClinicBusy = errors.New("another consultation is in progress for this clinic")
)

// Broadcaster pushes an invalidation signal to all connected real-time
// clients. Implementations must be fire-and-forget: a slow or dead client
// must never block or fail the originating write.
type Broadcaster interface {
	QueueUpdated()
}

// RegisterRequest is the patient registration input.
type RegisterRequest struct {
	FullName    string `json:"full_name"`
	Mobile      string `json:"mobile"`
	ClinicID    int64  `json:"clinic_id"`
	VisitReason string `json:"visit_reason"`
}

// QueueService coordinates repository reads/writes, the wait-time estimator,
// the status state machine and the real-time broadcast.
type QueueService struct {
	repo        repository.Repository
	broadcaster Broadcaster
	avgMinutes  int
}

func NewQueueService(repo repository.Repository, broadcaster Broadcaster, avgMinutes int) *QueueService {
	return &QueueService{
		repo:        repo,
		broadcaster: broadcaster,
		avgMinutes:  avgMinutes,
	}
}

// RegisterPatient validates the input, creates the patient plus a waiting
// entry with the next queue number, and notifies connected clients.
func (s *QueueService) RegisterPatient(ctx context.Context, req RegisterRequest) (*models.Patient, *models.QueueEntry, error) {
	if strings.TrimSpace(req.FullName) == "" {
		return nil, nil, fmt.Errorf("%w: full name is required", ErrValidation)
	}
	if err := validateMobile(req.Mobile); err != nil {
		return nil, nil, err
	}
	if req.ClinicID <= 0 {
		return nil, nil, fmt.Errorf("%w: clinic_id is required", ErrValidation)
	}
	if _, err := s.repo.GetClinic(ctx, req.ClinicID); err != nil {
		return nil, nil, err
	}

	patient := &models.Patient{
		FullName: strings.TrimSpace(req.FullName),
		Mobile:   req.Mobile,
	}
	created, entry, err := s.repo.RegisterPatient(ctx, patient, req.ClinicID, req.VisitReason)
	if err != nil {
		return nil, nil, err
	}

	log.Info().
		Int64("clinic_id", entry.ClinicID).
		Int64("entry_id", entry.ID).
		Int("queue_number", entry.QueueNumber).
		Msg("patient registered")

	s.notify()
	return created, entry, nil
}

// Snapshot returns the clinic's queue in repository order with freshly
// computed wait estimates. The public display passes includeUnpaid=false so
// unconfirmed registrations stay hidden; staff views include everything.
func (s *QueueService) Snapshot(ctx context.Context, clinicID int64, includeUnpaid bool) ([]models.QueueEntry, error) {
	if _, err := s.repo.GetClinic(ctx, clinicID); err != nil {
		return nil, err
	}
	entries, err := s.repo.ListByClinic(ctx, clinicID)
	if err != nil {
		return nil, err
	}
	if !includeUnpaid {
		filtered := entries[:0]
		for _, e := range entries {
			if e.IsPaid {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}
	ApplyWaitEstimates(entries, s.avgMinutes)
	return entries, nil
}

// ChangeStatus runs the state machine over the entry and persists the result.
// A waiting -> in-progress transition is refused while another entry of the
// same clinic is in progress.
func (s *QueueService) ChangeStatus(ctx context.Context, entryID int64, to models.Status) (*models.QueueEntry, error) {
	entry, err := s.repo.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}

	if err := ApplyTransition(entry, to, time.Now()); err != nil {
		return nil, err
	}

	var updated *models.QueueEntry
	if to == models.StatusInProgress {
		// The busy check and the status write are one repository step;
		// checking here and writing after would let two racing starts both
		// pass.
		updated, err = s.repo.StartConsultation(ctx, entryID, *entry.StartTime)
		if errors.Is(err, repository.ErrBusy) {
			return nil, fmt.Errorf("clinic %d: %w", entry.ClinicID, ErrClinicBusy)
		}
	} else {
		updated, err = s.repo.UpdateStatus(ctx, entryID, entry.Status, entry.StartTime, entry.EndTime)
	}
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("entry_id", entryID).
		Str("status", string(to)).
		Msg("queue status changed")

	s.notify()
	return updated, nil
}

// ConfirmPayment marks the entry paid after the payment callback fires.
func (s *QueueService) ConfirmPayment(ctx context.Context, entryID int64) (*models.QueueEntry, error) {
	updated, err := s.repo.SetPaid(ctx, entryID)
	if err != nil {
		return nil, err
	}
	s.notify()
	return updated, nil
}

// SetPriority raises or lowers an entry in the queue; higher sorts earlier.
func (s *QueueService) SetPriority(ctx context.Context, entryID int64, priority int) (*models.QueueEntry, error) {
	updated, err := s.repo.UpdatePriority(ctx, entryID, priority)
	if err != nil {
		return nil, err
	}
	s.notify()
	return updated, nil
}

// AttachVitals records clinical metadata taken before consultation.
func (s *QueueService) AttachVitals(ctx context.Context, entryID int64, vitals, visitReason string) (*models.QueueEntry, error) {
	if strings.TrimSpace(vitals) == "" {
		return nil, fmt.Errorf("%w: vitals are required", ErrValidation)
	}
	updated, err := s.repo.SetVitals(ctx, entryID, vitals, visitReason)
	if err != nil {
		return nil, err
	}
	s.notify()
	return updated, nil
}

func (s *QueueService) ListClinics(ctx context.Context) ([]models.Clinic, error) {
	return s.repo.ListClinics(ctx)
}

// notify triggers one broadcast after a committed write. Best effort only.
func (s *QueueService) notify() {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.QueueUpdated()
}

func validateMobile(mobile string) error {
	if mobile == "" {
		return fmt.Errorf("%w: mobile number is required", ErrValidation)
	}
	if len(mobile) != 10 {
		return fmt.Errorf("%w: mobile number must be 10 digits", ErrValidation)
	}
	for _, r := range mobile {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: mobile number must be 10 digits", ErrValidation)
		}
	}
	return nil
}
