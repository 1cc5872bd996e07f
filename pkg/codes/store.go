package codes

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/smilearc/casegen/internal/domain"
	apperrors "github.com/smilearc/casegen/internal/errors"
	"github.com/smilearc/casegen/pkg/shared/logging"
)

// Store is the persistence boundary the selector and the administrative
// write paths depend on.
type Store interface {
	// ActiveRule returns the highest-priority active rule for
	// (tier, age_group), breaking ties by most-recently-updated
	// (spec.md §4.1 step 2). Returns nil, nil if none matches.
	ActiveRule(ctx context.Context, tier domain.CaseTier, ageGroup domain.AgeGroup) (*SelectionRule, error)

	// ProcedureCodeByCode looks up a procedure code row. Returns nil,
	// nil if the code does not exist.
	ProcedureCodeByCode(ctx context.Context, code string) (*ProcedureCode, error)

	// PutProcedureCode inserts or updates a procedure code row.
	PutProcedureCode(ctx context.Context, pc *ProcedureCode) error

	// PutRule inserts or updates a selection rule, enforcing invariants
	// I1-I3 before the write lands.
	PutRule(ctx context.Context, rule *SelectionRule) error
}

// SQLStore is the sqlx-backed implementation of Store.
type SQLStore struct {
	db     *sqlx.DB
	logger *logrus.Entry
}

// NewSQLStore wraps a sqlx handle for procedure-code and rule access.
func NewSQLStore(db *sqlx.DB, logger *logrus.Logger) *SQLStore {
	if logger == nil {
		logger = logrus.New()
	}
	return &SQLStore{db: db, logger: logger.WithField("component", "codes.store")}
}

const selectActiveRuleSQL = `
SELECT id, tier, age_group, code, priority, is_active, created_at, updated_at
FROM selection_rules
WHERE tier = $1 AND age_group = $2 AND is_active = true
ORDER BY priority DESC, updated_at DESC
LIMIT 1`

func (s *SQLStore) ActiveRule(ctx context.Context, tier domain.CaseTier, ageGroup domain.AgeGroup) (*SelectionRule, error) {
	var rule SelectionRule
	err := s.db.GetContext(ctx, &rule, selectActiveRuleSQL, tier, ageGroup)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		s.logger.WithFields(logging.DatabaseFields("select", "selection_rules").Error(err).ToLogrus()).Error("active rule lookup failed")
		return nil, apperrors.NewDatabaseError("select active rule", err)
	}
	return &rule, nil
}

const selectProcedureCodeSQL = `
SELECT code, description, category, is_primary, is_active, notes, created_at, updated_at
FROM procedure_codes
WHERE code = $1`

func (s *SQLStore) ProcedureCodeByCode(ctx context.Context, code string) (*ProcedureCode, error) {
	var pc ProcedureCode
	err := s.db.GetContext(ctx, &pc, selectProcedureCodeSQL, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		s.logger.WithFields(logging.DatabaseFields("select", "procedure_codes").Error(err).ToLogrus()).Error("procedure code lookup failed")
		return nil, apperrors.NewDatabaseError("select procedure code", err)
	}
	return &pc, nil
}

const upsertProcedureCodeSQL = `
INSERT INTO procedure_codes (code, description, category, is_primary, is_active, notes, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, now(), now())
ON CONFLICT (code) DO UPDATE SET
	description = EXCLUDED.description,
	category    = EXCLUDED.category,
	is_primary  = EXCLUDED.is_primary,
	is_active   = EXCLUDED.is_active,
	notes       = EXCLUDED.notes,
	updated_at  = now()`

func (s *SQLStore) PutProcedureCode(ctx context.Context, pc *ProcedureCode) error {
	if pc.Code == "" || pc.Description == "" {
		return apperrors.NewValidationError("procedure code requires a non-empty code and description")
	}
	_, err := s.db.ExecContext(ctx, upsertProcedureCodeSQL,
		pc.Code, pc.Description, pc.Category, pc.IsPrimary, pc.IsActive, pc.Notes)
	if err != nil {
		return apperrors.NewDatabaseError("upsert procedure code", err)
	}
	return nil
}

const selectConflictingRuleSQL = `
SELECT id, tier, age_group, code, priority, is_active, created_at, updated_at
FROM selection_rules
WHERE tier = $1 AND age_group = $2 AND is_active = true AND id <> $3
LIMIT 1`

const upsertRuleSQL = `
INSERT INTO selection_rules (id, tier, age_group, code, priority, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, now(), now())
ON CONFLICT (id) DO UPDATE SET
	tier       = EXCLUDED.tier,
	age_group  = EXCLUDED.age_group,
	code       = EXCLUDED.code,
	priority   = EXCLUDED.priority,
	is_active  = EXCLUDED.is_active,
	updated_at = now()`

// PutRule validates invariants I1-I3 (spec.md §3) before writing:
//   - I2: tier and age_group must be members of their enums.
//   - I3: the referenced code must exist and be active.
//   - I1: at most one active rule per (tier, age_group); an active write
//     that collides with a different rule's id is rejected.
func (s *SQLStore) PutRule(ctx context.Context, rule *SelectionRule) error {
	if !rule.Tier.Valid() {
		return apperrors.NewValidationError("invalid tier: " + string(rule.Tier))
	}
	if !rule.AgeGroup.Valid() {
		return apperrors.NewValidationError("invalid age_group: " + string(rule.AgeGroup))
	}

	pc, err := s.ProcedureCodeByCode(ctx, rule.Code)
	if err != nil {
		return err
	}
	if pc == nil || !pc.IsActive {
		return apperrors.NewValidationError("rule references unknown or inactive procedure code: " + rule.Code)
	}

	if rule.IsActive {
		var conflict SelectionRule
		err := s.db.GetContext(ctx, &conflict, selectConflictingRuleSQL, rule.Tier, rule.AgeGroup, rule.ID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return apperrors.NewDatabaseError("check conflicting rule", err)
		}
		if err == nil {
			return apperrors.NewConflictError("an active rule already exists for tier=" + string(rule.Tier) + " age_group=" + string(rule.AgeGroup))
		}
	}

	_, err = s.db.ExecContext(ctx, upsertRuleSQL,
		rule.ID, rule.Tier, rule.AgeGroup, rule.Code, rule.Priority, rule.IsActive)
	if err != nil {
		return apperrors.NewDatabaseError("upsert selection rule", err)
	}
	return nil
}
