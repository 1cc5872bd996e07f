// Package coordinator implements the generation state machine (spec.md
// §4.4): Received -> Authenticated -> Validated -> [SeedResolved,
// CodesSelected, Prompted, LLMReturned] -> Audited -> Responded, with
// any failure short-circuiting to FailedAudited -> Responded.
package coordinator

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/smilearc/casegen/internal/config"
	"github.com/smilearc/casegen/internal/domain"
	apperrors "github.com/smilearc/casegen/internal/errors"
	"github.com/smilearc/casegen/pkg/ai/llm"
	"github.com/smilearc/casegen/pkg/audit"
	"github.com/smilearc/casegen/pkg/prompt"
	"github.com/smilearc/casegen/pkg/schema"
	"github.com/smilearc/casegen/pkg/selector"
	"github.com/smilearc/casegen/pkg/shared/alert"
	"github.com/smilearc/casegen/pkg/shared/logging"
	"github.com/smilearc/casegen/pkg/shared/metrics"
	"github.com/smilearc/casegen/pkg/shared/tracing"
)

// TreatmentSummaryOutcome is the coordinator's return value for the
// treatment-summary route, carrying everything the HTTP layer needs to
// build the response envelope in spec.md §6.
type TreatmentSummaryOutcome struct {
	Document            schema.TreatmentSummaryOutput
	CodeSelection       selector.Result
	TokensUsed          int
	GenerationTimeMS    int64
	GenerationID        string
	Seed                int
	IsRegenerated       bool
	PreviousVersionUUID string
	DocumentVersion     string
}

// InsuranceSummaryOutcome is the analogous outcome for the
// insurance-summary route.
type InsuranceSummaryOutcome struct {
	Document             schema.InsuranceSummaryOutput
	CodeSelection        selector.Result
	TokensUsed           int
	GenerationTimeMS     int64
	GenerationID         string
	Seed                 int
	IsRegenerated        bool
	PreviousVersionUUID  string
	DocumentVersion      string
}

// Coordinator wires the selector, prompt builder, LLM client, and audit
// store together, per component (spec.md §2 item 8).
type Coordinator struct {
	Codes    selector.Store
	LLM      *llm.Client
	Audit    audit.Store
	Settings *config.Settings

	// Metrics, Alerter, and Logger are additive/ambient (SPEC_FULL.md
	// §5.13, §5.14): nil values disable instrumentation, alerting, and
	// structured logging without affecting the generation path.
	Metrics *metrics.Metrics
	Alerter *alert.Notifier
	Logger  *logrus.Logger
}

func (c *Coordinator) logInfo(f logging.Fields, msg string) {
	if c.Logger != nil {
		c.Logger.WithFields(f.ToLogrus()).Info(msg)
	}
}

func (c *Coordinator) logError(f logging.Fields, msg string) {
	if c.Logger != nil {
		c.Logger.WithFields(f.ToLogrus()).Error(msg)
	}
}

func (c *Coordinator) resolveSeed(ctx context.Context, documentKind domain.DocumentKind, isRegeneration bool, previousVersionUUID string) (int, *audit.Record, error) {
	if !isRegeneration {
		return c.Settings.InitialSeedFor(string(documentKind)), nil, nil
	}
	if previousVersionUUID == "" {
		return 0, nil, apperrors.RegenerationMissingParent()
	}
	parent, err := c.Audit.Get(ctx, previousVersionUUID)
	if err != nil {
		return 0, nil, err
	}
	if parent == nil {
		return 0, nil, apperrors.ParentNotFound(previousVersionUUID)
	}
	return parent.Seed + 1, parent, nil
}

// auditFailure writes the error-path audit record spec.md §4.4/§7
// requires regardless of where the failure occurred, then returns the
// original error unchanged so the HTTP layer maps it to a status code.
func (c *Coordinator) auditFailure(ctx context.Context, userID string, documentKind domain.DocumentKind, documentVersion string, seed int, isRegeneration bool, previousVersionUUID string, input map[string]interface{}, cause error) error {
	auditCtx, auditSpan := tracing.StartAuditWrite(ctx, string(documentKind), string(domain.StatusError))
	record, auditErr := c.Audit.Append(auditCtx, audit.WriteInput{
		UserID:              userID,
		DocumentKind:        documentKind,
		DocumentVersion:     documentVersion,
		InputData:           input,
		OutputData:          map[string]interface{}{},
		Status:              domain.StatusError,
		ErrorMessage:        cause.Error(),
		Seed:                seed,
		IsRegenerated:       isRegeneration,
		PreviousVersionUUID: previousVersionUUID,
	})
	tracing.End(auditSpan, auditErr)

	if c.Metrics != nil {
		c.Metrics.Generations.WithLabelValues(string(documentKind), string(domain.StatusError)).Inc()
	}

	generationID := ""
	if auditErr == nil {
		generationID = record.ID
	}
	c.logError(logging.GenerationFields(generationID, string(documentKind)).UserID(userID).Error(cause), "generation failed")
	if c.Alerter != nil {
		c.Alerter.GenerationFailed(ctx, userID, documentKind, generationID, cause.Error())
	}

	// The original failure is what the caller needs to see regardless of
	// whether the failure-audit write itself succeeded.
	return cause
}

// GenerateTreatmentSummary runs the full state machine for
// POST /api/v1/generate-treatment-summary.
func (c *Coordinator) GenerateTreatmentSummary(ctx context.Context, userID string, req domain.TreatmentSummaryRequest) (*TreatmentSummaryOutcome, error) {
	req.ApplyDefaults()

	documentKind := domain.DocumentKindTreatmentSummary
	documentVersion, _ := schema.VersionFor(documentKind)

	inputData := treatmentRequestToMap(req)

	ageGroup, known := req.AgeGroup()
	if !known {
		err := apperrors.InsufficientInput("patient_age is required to derive age_group")
		return nil, c.auditFailure(ctx, userID, documentKind, documentVersion, 0, req.IsRegeneration, req.PreviousVersionUUID, inputData, err)
	}

	seed, _, err := c.resolveSeed(ctx, documentKind, req.IsRegeneration, req.PreviousVersionUUID)
	if err != nil {
		return nil, c.auditFailure(ctx, userID, documentKind, documentVersion, 0, req.IsRegeneration, req.PreviousVersionUUID, inputData, err)
	}

	selection, err := selector.Select(ctx, c.Codes, selector.Input{Tier: req.Tier, AgeGroup: ageGroup})
	if err != nil {
		return nil, c.auditFailure(ctx, userID, documentKind, documentVersion, seed, req.IsRegeneration, req.PreviousVersionUUID, inputData, err)
	}

	systemPrompt := prompt.SystemPromptFor(documentKind)
	userPrompt := prompt.BuildTreatmentSummaryPrompt(req)

	start := time.Now()
	llmCtx, llmSpan := tracing.StartLLMCall(ctx, string(documentKind), c.Settings.OpenAIModel)
	llmResult, err := c.LLM.Complete(llmCtx, llm.Request{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Model:        c.Settings.OpenAIModel,
		Temperature:  0.2,
		MaxTokens:    1024,
		Seed:         seed,
	})
	tracing.End(llmSpan, err)
	if err != nil {
		return nil, c.auditFailure(ctx, userID, documentKind, documentVersion, seed, req.IsRegeneration, req.PreviousVersionUUID, inputData, err)
	}

	var doc schema.TreatmentSummaryOutput
	if perr := llm.ParseStructured(llmResult.RawOutput, &doc, func() bool { return doc.Valid() }); perr != nil {
		err := apperrors.LLMCallFailed("response did not satisfy the treatment-summary schema", perr)
		return nil, c.auditFailure(ctx, userID, documentKind, documentVersion, seed, req.IsRegeneration, req.PreviousVersionUUID, inputData, err)
	}

	generationTimeMS := time.Since(start).Milliseconds()
	outputData := map[string]interface{}{"title": doc.Title, "summary": doc.Summary}

	auditCtx, auditSpan := tracing.StartAuditWrite(ctx, string(documentKind), string(domain.StatusSuccess))
	record, err := c.Audit.Append(auditCtx, audit.WriteInput{
		UserID:              userID,
		DocumentKind:        documentKind,
		DocumentVersion:     documentVersion,
		InputData:           inputData,
		OutputData:          outputData,
		ModelUsed:           c.Settings.OpenAIModel,
		TokensUsed:          intPtr(llmResult.TokensUsed),
		GenerationTimeMS:    int64Ptr(generationTimeMS),
		Status:              domain.StatusSuccess,
		Seed:                seed,
		IsRegenerated:       req.IsRegeneration,
		PreviousVersionUUID: req.PreviousVersionUUID,
	})
	tracing.End(auditSpan, err)
	if err != nil {
		return nil, err
	}

	if c.Metrics != nil {
		c.Metrics.Generations.WithLabelValues(string(documentKind), string(domain.StatusSuccess)).Inc()
		c.Metrics.LLMCallDuration.Observe(float64(llmResult.ElapsedMS) / 1000)
		c.Metrics.GenerationDuration.WithLabelValues(string(documentKind)).Observe(float64(generationTimeMS) / 1000)
	}
	c.logInfo(logging.GenerationFields(record.ID, string(documentKind)).UserID(userID).Duration(time.Duration(generationTimeMS)*time.Millisecond), "generation succeeded")

	return &TreatmentSummaryOutcome{
		Document:             doc,
		CodeSelection:        *selection,
		TokensUsed:           llmResult.TokensUsed,
		GenerationTimeMS:     generationTimeMS,
		GenerationID:         record.ID,
		Seed:                 seed,
		IsRegenerated:        req.IsRegeneration,
		PreviousVersionUUID:  req.PreviousVersionUUID,
		DocumentVersion:      documentVersion,
	}, nil
}

// GenerateInsuranceSummary runs the full state machine for
// POST /api/v1/generate-insurance-summary.
func (c *Coordinator) GenerateInsuranceSummary(ctx context.Context, userID string, req domain.InsuranceSummaryRequest) (*InsuranceSummaryOutcome, error) {
	documentKind := domain.DocumentKindInsuranceSummary
	documentVersion, _ := schema.VersionFor(documentKind)

	inputData := insuranceRequestToMap(req)

	seed, _, err := c.resolveSeed(ctx, documentKind, req.IsRegeneration, req.PreviousVersionUUID)
	if err != nil {
		return nil, c.auditFailure(ctx, userID, documentKind, documentVersion, 0, req.IsRegeneration, req.PreviousVersionUUID, inputData, err)
	}

	selection, err := selector.Select(ctx, c.Codes, selector.Input{
		Tier:              req.Tier.ToSelectorTier(),
		AgeGroup:          req.AgeGroup(),
		DiagnosticAssets:  req.DiagnosticAssets,
		RetainersIncluded: req.RetainersIncluded,
	})
	if err != nil {
		return nil, c.auditFailure(ctx, userID, documentKind, documentVersion, seed, req.IsRegeneration, req.PreviousVersionUUID, inputData, err)
	}

	systemPrompt := prompt.SystemPromptFor(documentKind)
	userPrompt := prompt.BuildInsuranceSummaryPrompt(req)

	start := time.Now()
	llmCtx, llmSpan := tracing.StartLLMCall(ctx, string(documentKind), c.Settings.OpenAIModel)
	llmResult, err := c.LLM.Complete(llmCtx, llm.Request{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Model:        c.Settings.OpenAIModel,
		Temperature:  0.1,
		MaxTokens:    1024,
		Seed:         seed,
	})
	tracing.End(llmSpan, err)
	if err != nil {
		return nil, c.auditFailure(ctx, userID, documentKind, documentVersion, seed, req.IsRegeneration, req.PreviousVersionUUID, inputData, err)
	}

	var doc schema.InsuranceSummaryOutput
	if perr := llm.ParseStructured(llmResult.RawOutput, &doc, func() bool { return doc.Valid() }); perr != nil {
		err := apperrors.LLMCallFailed("response did not satisfy the insurance-summary schema", perr)
		return nil, c.auditFailure(ctx, userID, documentKind, documentVersion, seed, req.IsRegeneration, req.PreviousVersionUUID, inputData, err)
	}

	generationTimeMS := time.Since(start).Milliseconds()
	outputData := map[string]interface{}{"insurance_summary": doc.InsuranceSummary, "disclaimer": doc.Disclaimer}

	auditCtx, auditSpan := tracing.StartAuditWrite(ctx, string(documentKind), string(domain.StatusSuccess))
	record, err := c.Audit.Append(auditCtx, audit.WriteInput{
		UserID:              userID,
		DocumentKind:        documentKind,
		DocumentVersion:     documentVersion,
		InputData:           inputData,
		OutputData:          outputData,
		ModelUsed:           c.Settings.OpenAIModel,
		TokensUsed:          intPtr(llmResult.TokensUsed),
		GenerationTimeMS:    int64Ptr(generationTimeMS),
		Status:              domain.StatusSuccess,
		Seed:                seed,
		IsRegenerated:       req.IsRegeneration,
		PreviousVersionUUID: req.PreviousVersionUUID,
	})
	tracing.End(auditSpan, err)
	if err != nil {
		return nil, err
	}

	if c.Metrics != nil {
		c.Metrics.Generations.WithLabelValues(string(documentKind), string(domain.StatusSuccess)).Inc()
		c.Metrics.LLMCallDuration.Observe(float64(llmResult.ElapsedMS) / 1000)
		c.Metrics.GenerationDuration.WithLabelValues(string(documentKind)).Observe(float64(generationTimeMS) / 1000)
	}
	c.logInfo(logging.GenerationFields(record.ID, string(documentKind)).UserID(userID).Duration(time.Duration(generationTimeMS)*time.Millisecond), "generation succeeded")

	return &InsuranceSummaryOutcome{
		Document:            doc,
		CodeSelection:       *selection,
		TokensUsed:          llmResult.TokensUsed,
		GenerationTimeMS:    generationTimeMS,
		GenerationID:        record.ID,
		Seed:                seed,
		IsRegenerated:       req.IsRegeneration,
		PreviousVersionUUID: req.PreviousVersionUUID,
		DocumentVersion:     documentVersion,
	}, nil
}

func treatmentRequestToMap(req domain.TreatmentSummaryRequest) map[string]interface{} {
	m := map[string]interface{}{
		"tier":                 string(req.Tier),
		"patient_name":         req.PatientName,
		"practice_name":        req.PracticeName,
		"treatment_type":       req.TreatmentType,
		"area_treated":         string(req.AreaTreated),
		"duration_range":       req.DurationRange,
		"case_difficulty":      req.CaseDifficulty,
		"monitoring_approach":  req.MonitoringApproach,
		"attachments":          req.Attachments,
		"whitening_included":   req.WhiteningIncluded,
		"dentist_note":         req.DentistNote,
		"audience":             string(req.Audience),
		"tone":                 string(req.Tone),
		"is_regeneration":      req.IsRegeneration,
		"previous_version_uuid": req.PreviousVersionUUID,
	}
	if req.PatientAge != nil {
		m["patient_age"] = *req.PatientAge
	}
	return m
}

func insuranceRequestToMap(req domain.InsuranceSummaryRequest) map[string]interface{} {
	return map[string]interface{}{
		"tier":                  string(req.Tier),
		"arches":                string(req.Arches),
		"age_group":             string(req.AgeGroupValue),
		"retainers_included":    req.RetainersIncluded,
		"diagnostic_assets":     req.DiagnosticAssets,
		"monitoring_approach":   req.MonitoringApproach,
		"notes":                 req.Notes,
		"is_regeneration":       req.IsRegeneration,
		"previous_version_uuid": req.PreviousVersionUUID,
	}
}

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }
