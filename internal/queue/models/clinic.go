package models

// Clinic is one consultation room with its own queue.
type Clinic struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
