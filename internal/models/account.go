package models

import "time"

// Account is a registered credential record, as stored in the database.
// The in-memory lobby user that wraps it lives in the lobby package.
type Account struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}
