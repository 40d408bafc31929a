package models

import "time"

// Patient is the registered patient record.
type Patient struct {
	ID        int64     `json:"id"`
	FullName  string    `json:"full_name"`
	Mobile    string    `json:"mobile"`
	CreatedAt time.Time `json:"created_at"`
}
