package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/clinicq/clinicq-backend/internal/queue/models"
)

// MySQLRepository implements Repository on MariaDB/MySQL.
type MySQLRepository struct {
	DB *sql.DB
}

func NewMySQLRepository(db *sql.DB) *MySQLRepository {
	return &MySQLRepository{DB: db}
}

const entryColumns = `
	id, clinic_id, patient_id, queue_number, priority, status, is_paid,
	check_in_time, start_time, end_time, vitals, visit_reason
`

func (r *MySQLRepository) RegisterPatient(ctx context.Context, patient *models.Patient, clinicID int64, visitReason string) (*models.Patient, *models.QueueEntry, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	now := time.Now()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO patients (full_name, mobile, created_at) VALUES (?, ?, ?)`,
		patient.FullName, patient.Mobile, now,
	)
	if err != nil {
		return nil, nil, mapMySQLError(err)
	}
	patientID, err := res.LastInsertId()
	if err != nil {
		return nil, nil, err
	}

	// Lock the clinic's number range so concurrent registrations cannot
	// both read the same max and issue a duplicate number.
	var maxNumber int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(queue_number), 0) FROM queue_entries WHERE clinic_id = ? FOR UPDATE`,
		clinicID,
	).Scan(&maxNumber)
	if err != nil {
		return nil, nil, err
	}
	nextNumber := maxNumber + 1

	res, err = tx.ExecContext(ctx,
		`INSERT INTO queue_entries
			(clinic_id, patient_id, queue_number, priority, status, is_paid, check_in_time, visit_reason)
		VALUES (?, ?, ?, 0, ?, 0, ?, ?)`,
		clinicID, patientID, nextNumber, models.StatusWaiting, now, visitReason,
	)
	if err != nil {
		return nil, nil, mapMySQLError(err)
	}
	entryID, err := res.LastInsertId()
	if err != nil {
		return nil, nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, nil, err
	}

	created := *patient
	created.ID = patientID
	created.CreatedAt = now

	entry := &models.QueueEntry{
		ID:          entryID,
		ClinicID:    clinicID,
		PatientID:   patientID,
		QueueNumber: nextNumber,
		Status:      models.StatusWaiting,
		CheckInTime: now,
		VisitReason: visitReason,
	}
	return &created, entry, nil
}

func (r *MySQLRepository) ListByClinic(ctx context.Context, clinicID int64) ([]models.QueueEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM queue_entries
		WHERE clinic_id = ?
		ORDER BY priority DESC, queue_number ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, clinicID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.QueueEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

func (r *MySQLRepository) GetEntry(ctx context.Context, id int64) (*models.QueueEntry, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM queue_entries WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("queue entry %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return entry, nil
}

func (r *MySQLRepository) UpdateStatus(ctx context.Context, id int64, status models.Status, startTime, endTime *time.Time) (*models.QueueEntry, error) {
	if _, err := r.GetEntry(ctx, id); err != nil {
		return nil, err
	}
	_, err := r.DB.ExecContext(ctx,
		`UPDATE queue_entries
		SET status = ?,
		    start_time = COALESCE(?, start_time),
		    end_time = COALESCE(?, end_time)
		WHERE id = ?`,
		status, startTime, endTime, id,
	)
	if err != nil {
		return nil, err
	}
	return r.GetEntry(ctx, id)
}

func (r *MySQLRepository) SetPaid(ctx context.Context, id int64) (*models.QueueEntry, error) {
	if _, err := r.GetEntry(ctx, id); err != nil {
		return nil, err
	}
	if _, err := r.DB.ExecContext(ctx,
		`UPDATE queue_entries SET is_paid = 1 WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return r.GetEntry(ctx, id)
}

func (r *MySQLRepository) UpdatePriority(ctx context.Context, id int64, priority int) (*models.QueueEntry, error) {
	if _, err := r.GetEntry(ctx, id); err != nil {
		return nil, err
	}
	if _, err := r.DB.ExecContext(ctx,
		`UPDATE queue_entries SET priority = ? WHERE id = ?`, priority, id); err != nil {
		return nil, err
	}
	return r.GetEntry(ctx, id)
}

func (r *MySQLRepository) SetVitals(ctx context.Context, id int64, vitals, visitReason string) (*models.QueueEntry, error) {
	if _, err := r.GetEntry(ctx, id); err != nil {
		return nil, err
	}
	if _, err := r.DB.ExecContext(ctx,
		`UPDATE queue_entries SET vitals = ?, visit_reason = ? WHERE id = ?`,
		vitals, visitReason, id); err != nil {
		return nil, err
	}
	return r.GetEntry(ctx, id)
}

// StartConsultation runs the busy check and the status write in one
// transaction. The clinic row is locked first, so every start for the same
// clinic funnels through one lock and two racing requests cannot both
// observe an idle clinic.
func (r *MySQLRepository) StartConsultation(ctx context.Context, id int64, startTime time.Time) (*models.QueueEntry, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM queue_entries WHERE id = ? FOR UPDATE`, id)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("queue entry %d: %w", id, ErrNotFound)
		}
		return nil, err
	}

	var clinicID int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM clinics WHERE id = ? FOR UPDATE`, entry.ClinicID,
	).Scan(&clinicID)
	if err != nil {
		return nil, err
	}

	var busy int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM queue_entries WHERE clinic_id = ? AND status = ? AND id <> ?`,
		entry.ClinicID, models.StatusInProgress, id,
	).Scan(&busy)
	if err != nil {
		return nil, err
	}
	if busy > 0 {
		return nil, fmt.Errorf("clinic %d: %w", entry.ClinicID, ErrBusy)
	}
	if entry.Status != models.StatusWaiting {
		return nil, fmt.Errorf("queue entry %d: %w", id, ErrBusy)
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE queue_entries SET status = ?, start_time = ? WHERE id = ?`,
		models.StatusInProgress, startTime, id,
	); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	entry.Status = models.StatusInProgress
	entry.StartTime = &startTime
	return entry, nil
}

func (r *MySQLRepository) ListClinics(ctx context.Context) ([]models.Clinic, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id, name FROM clinics ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clinics []models.Clinic
	for rows.Next() {
		var c models.Clinic
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		clinics = append(clinics, c)
	}
	return clinics, rows.Err()
}

func (r *MySQLRepository) GetClinic(ctx context.Context, id int64) (*models.Clinic, error) {
	var c models.Clinic
	err := r.DB.QueryRowContext(ctx, `SELECT id, name FROM clinics WHERE id = ?`, id).
		Scan(&c.ID, &c.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("clinic %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &c, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row rowScanner) (*models.QueueEntry, error) {
	var (
		e           models.QueueEntry
		status      string
		start, end  sql.NullTime
		vitals      sql.NullString
		visitReason sql.NullString
	)
	err := row.Scan(
		&e.ID, &e.ClinicID, &e.PatientID, &e.QueueNumber, &e.Priority,
		&status, &e.IsPaid, &e.CheckInTime, &start, &end, &vitals, &visitReason,
	)
	if err != nil {
		return nil, err
	}
	e.Status = models.Status(status)
	if start.Valid {
		t := start.Time
		e.StartTime = &t
	}
	if end.Valid {
		t := end.Time
		e.EndTime = &t
	}
	e.Vitals = vitals.String
	e.VisitReason = visitReason.String
	return &e, nil
}

// mapMySQLError converts driver-level foreign key and duplicate key errors
// into the repository taxonomy.
func mapMySQLError(err error) error {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1452: // foreign key fails
			return fmt.Errorf("%w: %v", ErrConstraint, err)
		case 1062: // duplicate entry
			return fmt.Errorf("%w: %v", ErrConstraint, err)
		}
	}
	return err
}
