// Package codes is the procedure-code and selection-rule store (spec.md
// §3, §4.1): the relational tables the selector reads and the
// administrative write paths that keep them invariant-clean.
package codes

import (
	"time"

	"github.com/smilearc/casegen/internal/domain"
)

// ProcedureCode is a single dental-procedure code row. Rows are never
// deleted; retiring a code clears IsActive.
type ProcedureCode struct {
	Code        string                   `db:"code" json:"code"`
	Description string                   `db:"description" json:"description"`
	Category    domain.ProcedureCategory `db:"category" json:"category"`
	IsPrimary   bool                     `db:"is_primary" json:"is_primary"`
	IsActive    bool                     `db:"is_active" json:"is_active"`
	Notes       string                   `db:"notes" json:"notes,omitempty"`
	CreatedAt   time.Time                `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time                `db:"updated_at" json:"updated_at"`
}

// SelectionRule maps a (tier, age_group) pair to the ProcedureCode the
// selector should return (spec.md §4.1). At most one active rule may
// exist per (tier, age_group) pair (invariant I1).
type SelectionRule struct {
	ID        string          `db:"id" json:"id"`
	Tier      domain.CaseTier `db:"tier" json:"tier"`
	AgeGroup  domain.AgeGroup `db:"age_group" json:"age_group"`
	Code      string          `db:"code" json:"code"`
	Priority  int             `db:"priority" json:"priority"`
	IsActive  bool            `db:"is_active" json:"is_active"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}
