// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// DateLayout is the wire format for calendar dates throughout the API.
const DateLayout = "2006-01-02"

// Session identifies a milking session.
type Session string

// Milking sessions in display order.
const (
	SessionAM Session = "AM"
	SessionPM Session = "PM"
)

// Sessions enumerates the session labels in the fixed column order used by the
// pivot grid and the exporters.
var Sessions = []Session{SessionAM, SessionPM}

// Valid reports whether s is a known session label.
func (s Session) Valid() bool { return s == SessionAM || s == SessionPM }

// MilkRecord is a single yield entry for one cow and one session.
// Records are never hard-deleted; Deleted is a revertible tombstone.
type MilkRecord struct {
	ID            int64
	OwnerID       uuid.UUID // scoping user; Nil for unclaimed legacy rows
	CowTag        string
	Litres        float64 // >= 0, enforced before every write
	RecordDate    string  // DateLayout
	Session       Session
	Note          string
	Tags          string // comma-separated free-form tags
	PricePerLitre *float64
	Deleted       bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// RecordUpdate carries the fields mutable via inline edit.
type RecordUpdate struct {
	Litres        float64
	Session       Session
	Note          string
	Tags          string
	PricePerLitre *float64
}

// Cow is a registry entry, upserted by (owner, tag).
type Cow struct {
	ID            int64
	OwnerID       uuid.UUID
	Tag           string
	Name          string
	Breed         string
	Parity        *int
	DOB           *string // DateLayout
	LatestCalving *string // DateLayout
	GroupName     string
	CreatedAt     time.Time
}

// HealthEvent is an append-only health log entry. CowTag is a loose reference,
// not a foreign key.
type HealthEvent struct {
	ID              int64
	OwnerID         uuid.UUID
	CowTag          string
	EventDate       string // DateLayout
	EventType       string
	WithdrawalUntil *string // DateLayout; active milk-withdrawal when >= today
	Details         string
	CreatedAt       time.Time
}

// BreedingEvent is an append-only breeding log entry.
type BreedingEvent struct {
	ID        int64
	OwnerID   uuid.UUID
	CowTag    string
	EventDate string // DateLayout
	EventType string
	Sire      string
	Protocol  string
	Details   string
	CreatedAt time.Time
}

// Role is a per-tenant user role.
type Role string

// Known roles. The first user of a tenant becomes admin.
const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Tenant is a dairy operation owning an isolated set of domain rows.
type Tenant struct {
	ID        uuid.UUID
	Slug      string // unique, used at login
	Name      string
	CreatedAt time.Time
}

// User is an account within a tenant. Either PwdHash/SaltAuth (password login)
// or ExternalSubject (OAuth identity verified upstream) is populated.
type User struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	Email           string
	PwdHash         []byte
	SaltAuth        []byte
	ExternalSubject string
	Role            Role
	CreatedAt       time.Time
}

// Tokens collects issued access tokens.
type Tokens struct {
	AccessToken string
	ExpiresAt   time.Time
}

// PivotSum is one (cow, date, session) aggregate returned by the GROUP BY query.
type PivotSum struct {
	CowTag  string
	Date    string // DateLayout
	Session Session
	Litres  float64
}

// PivotRow is one dense row of the pivot grid. Cells are aligned to
// dates x Sessions and carry 0.0 for combinations with no stored record.
type PivotRow struct {
	CowTag string    `json:"cow"`
	Cells  []float64 `json:"cells"`
	Total  float64   `json:"total"`
}
