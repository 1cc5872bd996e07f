package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/smilearc/casegen/internal/domain"
	apperrors "github.com/smilearc/casegen/internal/errors"
	"github.com/smilearc/casegen/pkg/redact"
)

// Policy is the redaction policy applied to input/output payloads
// before they are persisted (spec.md §4.7).
type Policy struct {
	StoreFullAuditData bool
	RedactPHIFields    bool
	PHIFieldsToRedact  []string
}

func (p Policy) apply(data map[string]interface{}) ([]byte, error) {
	if !p.StoreFullAuditData {
		return json.Marshal(redact.FullPayloadMarker())
	}
	if p.RedactPHIFields {
		data = redact.Fields(data, p.PHIFieldsToRedact)
	}
	return json.Marshal(data)
}

// WriteInput is the single append call's argument (spec.md §4.5): every
// required field the persisted Record needs, pre-redaction.
type WriteInput struct {
	UserID               string
	DocumentKind         domain.DocumentKind
	DocumentVersion      string
	InputData            map[string]interface{}
	OutputData           map[string]interface{}
	ModelUsed            string
	TokensUsed           *int
	GenerationTimeMS     *int64
	Status               domain.GenerationStatus
	ErrorMessage         string
	Seed                 int
	IsRegenerated        bool
	PreviousVersionUUID  string
	RequestID            string
}

// Store is the append-only audit persistence boundary.
type Store interface {
	// Append writes a new record and returns it with its assigned id.
	// It MUST succeed even when in.Status is error (spec.md §4.5): the
	// error path also audits.
	Append(ctx context.Context, in WriteInput) (*Record, error)

	// Get looks up a record by id, required by the coordinator to
	// resolve a regeneration's parent. Returns nil, nil if not found.
	Get(ctx context.Context, id string) (*Record, error)

	// ListByUser supports the secondary, off-critical-path query
	// spec.md §4.5 allows.
	ListByUser(ctx context.Context, userID string, limit int) ([]*Record, error)
}

// IDGenerator produces the UUIDs assigned to new records, injected so
// tests can supply deterministic ids.
type IDGenerator func() string

// SQLStore is the Postgres-backed implementation of Store.
type SQLStore struct {
	db      *sqlx.DB
	policy  Policy
	newID   IDGenerator
	logger  *logrus.Entry
}

// NewSQLStore wraps a sqlx handle with the redaction policy every write
// applies and the id generator new rows use.
func NewSQLStore(db *sqlx.DB, policy Policy, newID IDGenerator, logger *logrus.Logger) *SQLStore {
	if logger == nil {
		logger = logrus.New()
	}
	return &SQLStore{db: db, policy: policy, newID: newID, logger: logger.WithField("component", "audit.store")}
}

const insertRecordSQL = `
INSERT INTO audit_records (
	id, user_id, document_kind, document_version, input_data, output_data,
	model_used, tokens_used, generation_time_ms, status, error_message,
	seed, is_regenerated, previous_version_uuid, request_id, created_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, now()
) RETURNING created_at`

// Append implements spec.md §4.5's write contract, validating I5/I6 as
// a last line of defense before the row lands (seed resolution and the
// primary I5/I6 check live in the generation coordinator). Records with
// status error skip these checks, so a regeneration that failed before
// or during seed resolution is still audited.
func (s *SQLStore) Append(ctx context.Context, in WriteInput) (*Record, error) {
	if in.IsRegenerated && in.Status != domain.StatusError {
		if in.PreviousVersionUUID == "" {
			return nil, apperrors.RegenerationMissingParent()
		}
		parent, err := s.Get(ctx, in.PreviousVersionUUID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, apperrors.ParentNotFound(in.PreviousVersionUUID)
		}
		if parent.DocumentKind != in.DocumentKind || parent.UserID != in.UserID {
			return nil, apperrors.NewValidationError("regeneration parent belongs to a different document_kind or user_id")
		}
		if in.Seed != parent.Seed+1 {
			return nil, apperrors.NewValidationError("regeneration seed must be parent.seed + 1")
		}
	}

	inputJSON, err := s.policy.apply(in.InputData)
	if err != nil {
		return nil, apperrors.NewValidationError("failed to serialize input_data: " + err.Error())
	}
	outputJSON, err := s.policy.apply(in.OutputData)
	if err != nil {
		return nil, apperrors.NewValidationError("failed to serialize output_data: " + err.Error())
	}

	record := &Record{
		ID:                  s.newID(),
		UserID:              in.UserID,
		DocumentKind:        in.DocumentKind,
		DocumentVersion:     in.DocumentVersion,
		InputData:           inputJSON,
		OutputData:          outputJSON,
		ModelUsed:           in.ModelUsed,
		TokensUsed:          in.TokensUsed,
		GenerationTimeMS:    in.GenerationTimeMS,
		Status:              in.Status,
		ErrorMessage:        in.ErrorMessage,
		Seed:                in.Seed,
		IsRegenerated:       in.IsRegenerated,
		PreviousVersionUUID: in.PreviousVersionUUID,
		RequestID:           in.RequestID,
	}

	row := s.db.QueryRowxContext(ctx, insertRecordSQL,
		record.ID, record.UserID, record.DocumentKind, record.DocumentVersion,
		record.InputData, record.OutputData, record.ModelUsed, record.TokensUsed,
		record.GenerationTimeMS, record.Status, record.ErrorMessage, record.Seed,
		record.IsRegenerated, record.PreviousVersionUUID, record.RequestID)
	if err := row.Scan(&record.CreatedAt); err != nil {
		return nil, apperrors.NewDatabaseError("insert audit record", err)
	}

	return record, nil
}

const selectRecordByIDSQL = `
SELECT id, user_id, document_kind, document_version, input_data, output_data,
	model_used, tokens_used, generation_time_ms, status, error_message,
	seed, is_regenerated, previous_version_uuid, request_id, created_at
FROM audit_records WHERE id = $1`

func (s *SQLStore) Get(ctx context.Context, id string) (*Record, error) {
	var r Record
	err := s.db.GetContext(ctx, &r, selectRecordByIDSQL, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("select audit record", err)
	}
	return &r, nil
}

const selectRecordsByUserSQL = `
SELECT id, user_id, document_kind, document_version, input_data, output_data,
	model_used, tokens_used, generation_time_ms, status, error_message,
	seed, is_regenerated, previous_version_uuid, request_id, created_at
FROM audit_records WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`

func (s *SQLStore) ListByUser(ctx context.Context, userID string, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 50
	}
	var records []*Record
	err := s.db.SelectContext(ctx, &records, selectRecordsByUserSQL, userID, limit)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list audit records by user", err)
	}
	return records, nil
}
