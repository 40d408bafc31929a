package services

import (
	"context"
	"database/sql"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/clinicq/clinicq-backend/internal/staff/models"
)

// ErrInvalidCredentials is returned for unknown usernames and wrong passwords
// alike, so the response does not reveal which one it was.
var ErrInvalidCredentials = errors.New("invalid username or password")

type StaffService struct {
	DB *sql.DB
}

func NewStaffService(db *sql.DB) *StaffService {
	return &StaffService{DB: db}
}

// Authenticate verifies the staff credentials against the bcrypt hash.
func (s *StaffService) Authenticate(ctx context.Context, username, password string) (*models.Staff, error) {
	var (
		staff models.Staff
		hash  string
	)
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, username, full_name, role, password FROM staff WHERE username = ?`,
		username,
	).Scan(&staff.ID, &staff.Username, &staff.FullName, &staff.Role, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &staff, nil
}
