package confirmation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	apperrors "github.com/smilearc/casegen/internal/errors"
	"github.com/smilearc/casegen/pkg/audit"
	"github.com/smilearc/casegen/pkg/redact"
)

// Policy mirrors audit.Policy for the confirmed_payload field (spec.md
// §4.7): the same store_full_audit_data / redact_phi_fields switches
// apply to confirmation payloads.
type Policy struct {
	StoreFullAuditData bool
	RedactPHIFields    bool
	PHIFieldsToRedact  []string
}

func (p Policy) apply(data map[string]interface{}) ([]byte, error) {
	if data == nil {
		data = map[string]interface{}{}
	}
	if !p.StoreFullAuditData {
		return json.Marshal(redact.FullPayloadMarker())
	}
	if p.RedactPHIFields {
		data = redact.Fields(data, p.PHIFieldsToRedact)
	}
	return json.Marshal(data)
}

// ConfirmInput is the confirm() call's argument (spec.md §4.6).
type ConfirmInput struct {
	GenerationID     string
	UserID           string
	ConfirmedPayload map[string]interface{}
	Notes            string
}

// IDGenerator produces the UUIDs assigned to new confirmation records.
type IDGenerator func() string

// Store is the confirmation persistence boundary.
type Store interface {
	Confirm(ctx context.Context, in ConfirmInput) (*Record, error)
	IsConfirmed(ctx context.Context, generationID string) (bool, error)
	Get(ctx context.Context, generationID string) (*Record, error)
}

// SQLStore is the Postgres-backed implementation of Store, enforcing
// at-most-one-confirmation-per-generation (invariant I7) with a unique
// index as the source of truth and an optional Redis SETNX guard ahead
// of it to shed obviously-duplicate requests before they hit the
// database (SPEC_FULL.md §3).
type SQLStore struct {
	db         *sqlx.DB
	auditStore audit.Store
	redis      *redis.Client
	policy     Policy
	newID      IDGenerator
	logger     *logrus.Entry
}

// NewSQLStore wraps a sqlx handle, the audit store used to validate the
// referenced generation, and an optional Redis client (nil disables
// the fast-path guard; the unique index still enforces I7).
func NewSQLStore(db *sqlx.DB, auditStore audit.Store, redisClient *redis.Client, policy Policy, newID IDGenerator, logger *logrus.Logger) *SQLStore {
	if logger == nil {
		logger = logrus.New()
	}
	return &SQLStore{
		db:         db,
		auditStore: auditStore,
		redis:      redisClient,
		policy:     policy,
		newID:      newID,
		logger:     logger.WithField("component", "confirmation.store"),
	}
}

func redisGuardKey(generationID string) string {
	return "confirmation:guard:" + generationID
}

const insertConfirmationSQL = `
INSERT INTO confirmation_records (
	id, generation_id, user_id, document_kind, document_version, confirmed_at, confirmed_payload, notes
) VALUES ($1, $2, $3, $4, $5, now(), $6, $7)
ON CONFLICT (generation_id) DO NOTHING
RETURNING confirmed_at`

// Confirm implements spec.md §4.6's create algorithm.
func (s *SQLStore) Confirm(ctx context.Context, in ConfirmInput) (*Record, error) {
	if s.redis != nil {
		ok, err := s.redis.SetNX(ctx, redisGuardKey(in.GenerationID), in.UserID, 24*time.Hour).Result()
		if err != nil {
			s.logger.WithError(err).Warn("redis guard unavailable, falling back to the unique index")
		} else if !ok {
			return nil, apperrors.AlreadyConfirmed(in.GenerationID)
		}
	}

	record, err := s.auditStore.Get(ctx, in.GenerationID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, apperrors.GenerationNotFound(in.GenerationID)
	}
	if string(record.Status) != "success" {
		return nil, apperrors.GenerationNotSuccessful(in.GenerationID)
	}

	existing, err := s.Get(ctx, in.GenerationID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.AlreadyConfirmed(in.GenerationID)
	}

	payloadJSON, err := s.policy.apply(in.ConfirmedPayload)
	if err != nil {
		return nil, apperrors.NewValidationError("failed to serialize confirmed_payload: " + err.Error())
	}

	confirmation := &Record{
		ID:               s.newID(),
		GenerationID:     in.GenerationID,
		UserID:           in.UserID,
		DocumentKind:     string(record.DocumentKind),
		DocumentVersion:  record.DocumentVersion,
		ConfirmedPayload: payloadJSON,
		Notes:            in.Notes,
	}

	row := s.db.QueryRowxContext(ctx, insertConfirmationSQL,
		confirmation.ID, confirmation.GenerationID, confirmation.UserID,
		confirmation.DocumentKind, confirmation.DocumentVersion,
		confirmation.ConfirmedPayload, confirmation.Notes)
	if err := row.Scan(&confirmation.ConfirmedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// The ON CONFLICT DO NOTHING clause fired: a concurrent
			// writer won the unique-index race.
			return nil, apperrors.AlreadyConfirmed(in.GenerationID)
		}
		return nil, apperrors.NewDatabaseError("insert confirmation record", err)
	}

	return confirmation, nil
}

const selectConfirmationByGenerationIDSQL = `
SELECT id, generation_id, user_id, document_kind, document_version, confirmed_at, confirmed_payload, notes, pdf_generated_at
FROM confirmation_records WHERE generation_id = $1`

func (s *SQLStore) Get(ctx context.Context, generationID string) (*Record, error) {
	var r Record
	err := s.db.GetContext(ctx, &r, selectConfirmationByGenerationIDSQL, generationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("select confirmation record", err)
	}
	return &r, nil
}

func (s *SQLStore) IsConfirmed(ctx context.Context, generationID string) (bool, error) {
	record, err := s.Get(ctx, generationID)
	if err != nil {
		return false, err
	}
	return record != nil, nil
}
