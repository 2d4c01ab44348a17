// Package models holds the records persisted by the server.
package models

import "time"

// Account is a registered user. PasswordHash is never empty once stored.
type Account struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
