package model

import (
	"time"

	"github.com/google/uuid"
)

// MatterStatus is the lifecycle state of a matter.
type MatterStatus string

const (
	MatterActive   MatterStatus = "active"
	MatterPending  MatterStatus = "pending"
	MatterClosed   MatterStatus = "closed"
	MatterArchived MatterStatus = "archived"
)

// Matter is a legal engagement record: the client, the party adverse to the
// client, and a free-text description of the engagement. Matters are the
// corpus every conflict check is screened against.
type Matter struct {
	ID           uuid.UUID    `json:"id"`
	OwnerID      uuid.UUID    `json:"owner_id"`
	Title        string       `json:"title"`
	ClientName   *string      `json:"client_name,omitempty"`
	AdverseParty *string      `json:"adverse_party,omitempty"`
	Description  *string      `json:"description,omitempty"`
	Status       MatterStatus `json:"status"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// CreateMatterRequest is the payload for POST /v1/matters.
type CreateMatterRequest struct {
	Title        string  `json:"title"`
	ClientName   *string `json:"client_name,omitempty"`
	AdverseParty *string `json:"adverse_party,omitempty"`
	Description  *string `json:"description,omitempty"`
}

// Field length limits for matter fields. These bound the per-check scoring
// cost (every check scans every matter) and keep Postgres TEXT columns from
// filling with caller-controlled garbage.
const (
	MaxTitleLen       = 500
	MaxNameLen        = 500
	MaxDescriptionLen = 32 * 1024 // 32 KB
)
