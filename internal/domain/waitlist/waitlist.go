package waitlist

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxVibeLen = 500

// Entry is a waitlist sign-up (immutable value object).
type Entry struct {
	id        string
	email     string
	vibe      string
	createdAt int64
}

// NormalizeEmail trims and lower-cases an address. Entries are keyed by it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// New validates and creates an Entry. Vibe is an optional free-text note.
func New(email, vibe string) (Entry, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return Entry{}, fmt.Errorf("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return Entry{}, fmt.Errorf("invalid email address: %q", email)
	}
	vibe = strings.TrimSpace(vibe)
	if len(vibe) > maxVibeLen {
		return Entry{}, fmt.Errorf("vibe too long (max %d)", maxVibeLen)
	}
	return Entry{id: uuid.NewString(), email: email, vibe: vibe, createdAt: time.Now().UnixMilli()}, nil
}

// Reconstruct restores an Entry from storage without validation.
func Reconstruct(id, email, vibe string, createdAt int64) Entry {
	return Entry{id: id, email: email, vibe: vibe, createdAt: createdAt}
}

// ID returns the entry id.
func (e Entry) ID() string { return e.id }

// Email returns the normalized address.
func (e Entry) Email() string { return e.email }

// Vibe returns the optional note.
func (e Entry) Vibe() string { return e.vibe }

// CreatedAt returns the sign-up time in unix millis.
func (e Entry) CreatedAt() int64 { return e.createdAt }
