// Package audit is the append-only generation log (spec.md §3, §4.5):
// every request that reaches the coordinator, success or failure,
// lands exactly one row here.
package audit

import (
	"time"

	"github.com/smilearc/casegen/internal/domain"
)

// Record is a single AuditRecord row. Once written it is never updated
// or deleted (invariant I4).
type Record struct {
	ID                   string                  `db:"id" json:"id"`
	UserID               string                  `db:"user_id" json:"user_id"`
	DocumentKind         domain.DocumentKind     `db:"document_kind" json:"document_kind"`
	DocumentVersion      string                  `db:"document_version" json:"document_version"`
	InputData            []byte                  `db:"input_data" json:"-"`
	OutputData           []byte                  `db:"output_data" json:"-"`
	ModelUsed            string                  `db:"model_used" json:"model_used"`
	TokensUsed           *int                    `db:"tokens_used" json:"tokens_used,omitempty"`
	GenerationTimeMS     *int64                  `db:"generation_time_ms" json:"generation_time_ms,omitempty"`
	Status               domain.GenerationStatus `db:"status" json:"status"`
	ErrorMessage         string                  `db:"error_message" json:"error_message,omitempty"`
	Seed                 int                     `db:"seed" json:"seed"`
	IsRegenerated        bool                    `db:"is_regenerated" json:"is_regenerated"`
	PreviousVersionUUID  string                  `db:"previous_version_uuid" json:"previous_version_uuid,omitempty"`
	RequestID            string                  `db:"request_id" json:"request_id,omitempty"`
	LatencyBreakdownMS   []byte                  `db:"latency_breakdown_ms" json:"latency_breakdown_ms,omitempty"`
	CreatedAt            time.Time               `db:"created_at" json:"created_at"`
}
