package feedback

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxTextLen = 5000

// Category groups feedback by topic.
type Category string

// Feedback categories.
const (
	General Category = "general"
	Search  Category = "search"
	Bug     Category = "bug"
	Feature Category = "feature"
)

// IsValid checks if the category is supported.
func (c Category) IsValid() bool {
	return c == General || c == Search || c == Bug || c == Feature
}

// Entry is a piece of user feedback (immutable value object).
type Entry struct {
	id        string
	category  Category
	text      string
	userID    string
	createdAt int64
}

// New validates and creates an Entry. An empty category defaults to general.
func New(category Category, text, userID string) (Entry, error) {
	if category == "" {
		category = General
	}
	if !category.IsValid() {
		return Entry{}, fmt.Errorf("invalid feedback category: %q", category)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Entry{}, fmt.Errorf("feedback text is required")
	}
	if len(text) > maxTextLen {
		return Entry{}, fmt.Errorf("feedback text too long (max %d)", maxTextLen)
	}
	return Entry{
		id:        uuid.NewString(),
		category:  category,
		text:      text,
		userID:    strings.TrimSpace(userID),
		createdAt: time.Now().UnixMilli(),
	}, nil
}

// Reconstruct restores an Entry from storage without validation.
func Reconstruct(id string, category Category, text, userID string, createdAt int64) Entry {
	return Entry{id: id, category: category, text: text, userID: userID, createdAt: createdAt}
}

// ID returns the entry id.
func (e Entry) ID() string { return e.id }

// Category returns the topic.
func (e Entry) Category() Category { return e.category }

// Text returns the feedback text.
func (e Entry) Text() string { return e.text }

// UserID returns the optional submitting user.
func (e Entry) UserID() string { return e.userID }

// CreatedAt returns the submission time in unix millis.
func (e Entry) CreatedAt() int64 { return e.createdAt }
