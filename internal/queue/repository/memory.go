package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/clinicq/clinicq-backend/internal/queue/models"
)

// MemoryRepository is an in-memory Repository used by tests and for running
// the server without a database. The mutex plus the per-clinic last-issued
// counter give the same numbering guarantee the MySQL implementation gets
// from its locking transaction: numbers are strictly increasing per clinic
// and survive entry removal.
type MemoryRepository struct {
	mu sync.Mutex

	clinics  map[int64]models.Clinic
	patients map[int64]models.Patient
	entries  map[int64]models.QueueEntry

	lastIssued    map[int64]int // clinic id -> last queue number handed out
	nextPatientID int64
	nextEntryID   int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		clinics:    make(map[int64]models.Clinic),
		patients:   make(map[int64]models.Patient),
		entries:    make(map[int64]models.QueueEntry),
		lastIssued: make(map[int64]int),
	}
}

// AddClinic seeds a clinic. Not part of the Repository contract; clinics are
// reference data owned by the schema in production.
func (r *MemoryRepository) AddClinic(c models.Clinic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clinics[c.ID] = c
}

func (r *MemoryRepository) RegisterPatient(ctx context.Context, patient *models.Patient, clinicID int64, visitReason string) (*models.Patient, *models.QueueEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clinics[clinicID]; !ok {
		return nil, nil, fmt.Errorf("clinic %d: %w", clinicID, ErrConstraint)
	}

	now := time.Now()

	r.nextPatientID++
	created := *patient
	created.ID = r.nextPatientID
	created.CreatedAt = now
	r.patients[created.ID] = created

	r.lastIssued[clinicID]++
	r.nextEntryID++
	entry := models.QueueEntry{
		ID:          r.nextEntryID,
		ClinicID:    clinicID,
		PatientID:   created.ID,
		QueueNumber: r.lastIssued[clinicID],
		Status:      models.StatusWaiting,
		CheckInTime: now,
		VisitReason: visitReason,
	}
	r.entries[entry.ID] = entry

	return &created, &entry, nil
}

func (r *MemoryRepository) ListByClinic(ctx context.Context, clinicID int64) ([]models.QueueEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var entries []models.QueueEntry
	for _, e := range r.entries {
		if e.ClinicID == clinicID {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Priority != entries[j].Priority {
			return entries[i].Priority > entries[j].Priority
		}
		return entries[i].QueueNumber < entries[j].QueueNumber
	})
	return entries, nil
}

func (r *MemoryRepository) GetEntry(ctx context.Context, id int64) (*models.QueueEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getEntryLocked(id)
}

func (r *MemoryRepository) getEntryLocked(id int64) (*models.QueueEntry, error) {
	e, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("queue entry %d: %w", id, ErrNotFound)
	}
	copied := e
	return &copied, nil
}

func (r *MemoryRepository) UpdateStatus(ctx context.Context, id int64, status models.Status, startTime, endTime *time.Time) (*models.QueueEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.getEntryLocked(id)
	if err != nil {
		return nil, err
	}
	e.Status = status
	if startTime != nil {
		e.StartTime = startTime
	}
	if endTime != nil {
		e.EndTime = endTime
	}
	r.entries[id] = *e
	copied := *e
	return &copied, nil
}

func (r *MemoryRepository) SetPaid(ctx context.Context, id int64) (*models.QueueEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.getEntryLocked(id)
	if err != nil {
		return nil, err
	}
	e.IsPaid = true
	r.entries[id] = *e
	copied := *e
	return &copied, nil
}

func (r *MemoryRepository) UpdatePriority(ctx context.Context, id int64, priority int) (*models.QueueEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.getEntryLocked(id)
	if err != nil {
		return nil, err
	}
	e.Priority = priority
	r.entries[id] = *e
	copied := *e
	return &copied, nil
}

func (r *MemoryRepository) SetVitals(ctx context.Context, id int64, vitals, visitReason string) (*models.QueueEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.getEntryLocked(id)
	if err != nil {
		return nil, err
	}
	e.Vitals = vitals
	e.VisitReason = visitReason
	r.entries[id] = *e
	copied := *e
	return &copied, nil
}

// StartConsultation holds the mutex across the busy check and the status
// write so two racing starts for one clinic cannot both pass.
func (r *MemoryRepository) StartConsultation(ctx context.Context, id int64, startTime time.Time) (*models.QueueEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.getEntryLocked(id)
	if err != nil {
		return nil, err
	}
	for _, other := range r.entries {
		if other.ClinicID == e.ClinicID && other.Status == models.StatusInProgress {
			return nil, fmt.Errorf("clinic %d: %w", e.ClinicID, ErrBusy)
		}
	}
	if e.Status != models.StatusWaiting {
		return nil, fmt.Errorf("queue entry %d: %w", id, ErrBusy)
	}

	e.Status = models.StatusInProgress
	e.StartTime = &startTime
	r.entries[id] = *e
	copied := *e
	return &copied, nil
}

func (r *MemoryRepository) ListClinics(ctx context.Context) ([]models.Clinic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var clinics []models.Clinic
	for _, c := range r.clinics {
		clinics = append(clinics, c)
	}
	sort.Slice(clinics, func(i, j int) bool { return clinics[i].ID < clinics[j].ID })
	return clinics, nil
}

func (r *MemoryRepository) GetClinic(ctx context.Context, id int64) (*models.Clinic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.clinics[id]
	if !ok {
		return nil, fmt.Errorf("clinic %d: %w", id, ErrNotFound)
	}
	return &c, nil
}
