// Package selector implements the deterministic procedure-code
// selection algorithm (spec.md §4.1): case attributes plus the rule
// store snapshot in, a primary code and optional add-ons out.
package selector

import (
	"context"
	"fmt"

	"github.com/smilearc/casegen/internal/domain"
	apperrors "github.com/smilearc/casegen/internal/errors"
	"github.com/smilearc/casegen/pkg/codes"
)

// Input is the normalized case attributes the selector consumes. Tier
// and AgeGroup are required; DiagnosticAssets only affects the
// insurance-flow add-ons.
type Input struct {
	Tier             domain.CaseTier
	AgeGroup         domain.AgeGroup
	DiagnosticAssets domain.DiagnosticAssets
	RetainersIncluded bool
}

// Result is the selector's output (spec.md §4.1).
type Result struct {
	PrimaryCode        string
	PrimaryDescription string
	AddOns             []string
	Notes              string
}

// Store is the read-only subset of codes.Store the selector needs.
type Store interface {
	ActiveRule(ctx context.Context, tier domain.CaseTier, ageGroup domain.AgeGroup) (*codes.SelectionRule, error)
	ProcedureCodeByCode(ctx context.Context, code string) (*codes.ProcedureCode, error)
}

// Select implements spec.md §4.1's algorithm. It is deterministic with
// respect to the store's snapshot at call time: no randomness, no
// clock reads beyond what the store itself applies to break ties.
func Select(ctx context.Context, store Store, in Input) (*Result, error) {
	if !in.Tier.Valid() {
		return nil, apperrors.NewValidationError("invalid tier: " + string(in.Tier))
	}
	if !in.AgeGroup.Valid() {
		return nil, apperrors.NewValidationError("invalid age_group: " + string(in.AgeGroup))
	}

	rule, err := store.ActiveRule(ctx, in.Tier, in.AgeGroup)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, apperrors.RuleNotFound(string(in.Tier), string(in.AgeGroup))
	}

	pc, err := store.ProcedureCodeByCode(ctx, rule.Code)
	if err != nil {
		return nil, err
	}
	if pc == nil || !pc.IsActive {
		return nil, apperrors.CodeInactive(rule.Code)
	}

	result := &Result{
		PrimaryCode:        pc.Code,
		PrimaryDescription: pc.Description,
		AddOns:             in.DiagnosticAssets.AddOnCodes(),
		Notes:              fmt.Sprintf("Selected based on tier=%s, age_group=%s", in.Tier, in.AgeGroup),
	}
	return result, nil
}
