// Package demo simulates a hosted checkout provider in memory. It is used when
// no Stripe credentials are configured and keeps the same create, retrieve and
// complete contract, plus age-based expiry.
package demo

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// IDPrefix namespaces demo session ids so they never collide with provider ids.
const IDPrefix = "demo_"

type Status string

const (
	StatusPending  Status = "pending"
	StatusComplete Status = "complete"
)

type LineItem struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int64  `json:"quantity"`
	Image    string `json:"image,omitempty"`
}

// Session is a locally simulated checkout session.
type Session struct {
	ID          string     `json:"id"`
	Status      Status     `json:"status"`
	Items       []LineItem `json:"items"`
	TotalAmount int64      `json:"totalAmount"`
	Currency    string     `json:"currency"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// IsSessionID reports whether id belongs to the demo namespace.
func IsSessionID(id string) bool {
	return strings.HasPrefix(id, IDPrefix) && len(id) > len(IDPrefix)
}

// NewSessionID returns a fresh id of the form demo_<32 hex chars>.
func NewSessionID() string {
	return IDPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (s *Session) clone() *Session {
	if s == nil {
		return nil
	}
	copied := *s
	copied.Items = append([]LineItem(nil), s.Items...)
	if s.CompletedAt != nil {
		at := *s.CompletedAt
		copied.CompletedAt = &at
	}
	return &copied
}

func (s *Session) complete(at time.Time) {
	s.Status = StatusComplete
	completedAt := at
	s.CompletedAt = &completedAt
}
