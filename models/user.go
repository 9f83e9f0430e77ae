package models

import "time"

// User is the account owning repositories and scans. OAuth token exchange is
// handled elsewhere; the scan engine only needs the stored host credential to
// read repository contents, and the email address for critical alerts.
type User struct {
	ID        string    `json:"id"         db:"id"`
	Email     string    `json:"email"      db:"email"`
	Name      string    `json:"name"       db:"name"`
	HostToken string    `json:"-"          db:"host_token"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
