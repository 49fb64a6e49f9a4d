package models

import (
	"fmt"
	"strings"
	"time"
)

// PendingSignup is a user-submitted request for access awaiting manual allow-listing.
type PendingSignup struct {
	id        string
	email     string
	timestamp time.Time
}

var _ Model = (*PendingSignup)(nil)

// NewPendingSignup creates an unsaved record for email, trimmed, stamped with the current time.
func NewPendingSignup(email string) *PendingSignup {
	return &PendingSignup{
		email:     strings.TrimSpace(email),
		timestamp: time.Now().UTC(),
	}
}

// RestorePendingSignup rebuilds a persisted record.
func RestorePendingSignup(id, email string, timestamp time.Time) *PendingSignup {
	return &PendingSignup{id: id, email: email, timestamp: timestamp}
}

func (p *PendingSignup) ID() string           { return p.id }
func (p *PendingSignup) Email() string        { return p.email }
func (p *PendingSignup) Timestamp() time.Time { return p.timestamp }
func (p *PendingSignup) CreatedAt() time.Time { return p.timestamp }

// SetID assigns the generated identifier.
func (p *PendingSignup) SetID(id string) { p.id = id }

// Validate requires a non-empty email.
func (p *PendingSignup) Validate() error {
	if p.email == "" {
		return fmt.Errorf("email is required")
	}
	return nil
}

// PendingSignupJSON is the wire form of [PendingSignup].
type PendingSignupJSON struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Timestamp time.Time `json:"timestamp"`
}

// JSON returns the wire form of the record.
func (p *PendingSignup) JSON() PendingSignupJSON {
	return PendingSignupJSON{ID: p.id, Email: p.email, Timestamp: p.timestamp}
}
