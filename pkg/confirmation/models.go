// Package confirmation is the at-most-one-confirmation-per-generation
// store (spec.md §3, §4.6).
package confirmation

import "time"

// Record is a single ConfirmationRecord row.
type Record struct {
	ID               string     `db:"id" json:"id"`
	GenerationID     string     `db:"generation_id" json:"generation_id"`
	UserID           string     `db:"user_id" json:"user_id"`
	DocumentKind     string     `db:"document_kind" json:"document_kind"`
	DocumentVersion  string     `db:"document_version" json:"document_version"`
	ConfirmedAt      time.Time  `db:"confirmed_at" json:"confirmed_at"`
	ConfirmedPayload []byte     `db:"confirmed_payload" json:"-"`
	Notes            string     `db:"notes" json:"notes,omitempty"`
	PDFGeneratedAt   *time.Time `db:"pdf_generated_at" json:"pdf_generated_at,omitempty"`
}
