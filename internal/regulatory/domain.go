// Package regulatory implements the quarterly customer-reporting state
// machine: each customer is reported to the regulator exactly once per
// (branch-scope, year), and a locked quarter is frozen forever.
package regulatory

import (
	"context"
	"time"

	"github.com/moneta-erp/moneta/internal/masterdata"
	"github.com/moneta-erp/moneta/internal/shared"
)

// Status is the lifecycle stage of a reporting period.
type Status string

const (
	// StatusDraft is virtual: no persisted row exists and the report is
	// derived on demand.
	StatusDraft Status = "DRAFT"
	// StatusLocked is persisted and terminal.
	StatusLocked Status = "LOCKED"
)

// PeriodKey identifies a reporting period.
type PeriodKey struct {
	Scope   shared.BranchScope
	Year    int
	Quarter int
}

// ReportRow is one customer line in the regulator submission.
type ReportRow struct {
	CustomerID     string               `json:"customer_id"`
	CustomerCode   string               `json:"customer_code"`
	LegalType      masterdata.LegalType `json:"legal_type"`
	Name           string               `json:"name"`
	IdentityType   string               `json:"identity_type,omitempty"`
	IdentityNumber string               `json:"identity_number,omitempty"`
	BirthPlace     string               `json:"birth_place,omitempty"`
	BirthDate      string               `json:"birth_date,omitempty"`
	Address        string               `json:"address,omitempty"`
	NPWP           string               `json:"npwp,omitempty"`
	LicenseNumber  string               `json:"license_number,omitempty"`
	OperatorID     string               `json:"operator_id"`
}

// Summary counts the draft by customer legal type.
type Summary struct {
	Total       int `json:"total"`
	Individuals int `json:"individuals"`
	Entities    int `json:"entities"`
}

// Snapshot is the write-once payload of a locked period.
type Snapshot struct {
	Rows        []ReportRow `json:"rows"`
	CustomerIDs []string    `json:"customer_ids"`
	Summary     Summary     `json:"summary"`
	LockedBy    string      `json:"locked_by"`
	LockedAt    time.Time   `json:"locked_at"`
}

// State is the tagged period state: a missing row is Draft, never a record
// with null fields.
type State struct {
	Status Status
	// Locked is set only when Status is StatusLocked.
	Locked *Snapshot
}

// LockInfo summarizes one quarter for the compliance dashboard.
type LockInfo struct {
	Locked        bool      `json:"locked"`
	LockedBy      string    `json:"locked_by,omitempty"`
	LockedAt      time.Time `json:"locked_at,omitzero"`
	CustomerCount int       `json:"customer_count"`
}

// Repository persists locked periods. Draft periods have no row.
type Repository interface {
	// GetLocked returns the frozen snapshot, ok=false when the period is
	// still a draft.
	GetLocked(ctx context.Context, key PeriodKey) (Snapshot, bool, error)
	// ReportedBefore returns the customer ids present in locked periods of
	// the same scope and year with quarter strictly below the given one.
	ReportedBefore(ctx context.Context, scope shared.BranchScope, year, quarter int) (map[string]struct{}, error)
	// InsertLocked persists a locked period atomically; it fails with
	// shared.ErrAlreadyLocked when the key already exists, so exactly one
	// concurrent lock attempt wins.
	InsertLocked(ctx context.Context, key PeriodKey, snap Snapshot) error
	// YearStatus returns LockInfo for quarters 1 through 4.
	YearStatus(ctx context.Context, scope shared.BranchScope, year int) (map[int]LockInfo, error)
}
