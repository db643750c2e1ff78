// Package models defines server-side data models persisted in the database.
package models

import "time"

// Account is a registered Yapplr user. Email is stored case-folded.
type Account struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	Bio          string
	Birthday     *time.Time
	Pronouns     string
	Tagline      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
