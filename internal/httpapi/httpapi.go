// Package httpapi is the HTTP surface (spec.md §4.9, §6): route
// registration, request decoding, and the error-to-status mapping that
// lets every handler return an error and let one place turn it into a
// response.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/smilearc/casegen/internal/coordinator"
	"github.com/smilearc/casegen/internal/domain"
	apperrors "github.com/smilearc/casegen/internal/errors"
	"github.com/smilearc/casegen/internal/validation"
	"github.com/smilearc/casegen/pkg/auth"
	"github.com/smilearc/casegen/pkg/confirmation"
	"github.com/smilearc/casegen/pkg/shared/logging"
	"github.com/smilearc/casegen/pkg/shared/metrics"
)

// Version is surfaced on GET /health.
const Version = "1.0.0"

// Pinger reports whether the database backing the gateway's stores is
// reachable, so GET /health can fail closed instead of returning a
// static success regardless of storage state.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// Server wires the coordinator, confirmation store, and authenticator
// into a chi router implementing spec.md §6's routes.
type Server struct {
	Coordinator   *coordinator.Coordinator
	Confirmations confirmation.Store
	Authenticator *auth.Authenticator
	Logger        *logrus.Entry
	CORSOrigins   []string

	// DB is optional; nil makes GET /health report healthy without a
	// backing store check, which is how internal/httpapi's own tests
	// exercise the handler without a database.
	DB Pinger

	// Metrics is additive/ambient (SPEC_FULL.md §5.13); nil disables
	// instrumentation and GET /metrics returns 404.
	Metrics *metrics.Metrics
}

// Router builds the chi.Router spec.md §4.9 describes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if s.Metrics != nil {
		r.Use(metrics.HTTPMetrics(s.Metrics))
	}

	origins := s.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	if s.Metrics != nil {
		r.Handle("/metrics", s.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/generate-treatment-summary", s.handleGenerateTreatmentSummary)
		r.Post("/generate-insurance-summary", s.handleGenerateInsuranceSummary)
		r.Post("/documents/{generation_id}/confirm", s.handleConfirm)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.DB != nil {
		if err := s.DB.HealthCheck(r.Context()); err != nil {
			if s.Logger != nil {
				s.Logger.WithFields(logging.DatabaseFields("ping", "").Error(err).ToLogrus()).Warn("health check failed")
			}
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"status": "unhealthy", "version": Version})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "healthy", "version": Version})
}

// authenticate resolves the request's user_id or writes an error
// response and returns false.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := s.Authenticator.Authenticate(r.Header.Get("Authorization"))
	if err != nil {
		s.writeError(w, r, err)
		return "", false
	}
	return userID, true
}

// writeError maps err to a status code, logs it with request
// context, and writes the error envelope (spec.md §6).
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.GetStatusCode(err)
	if s.Logger != nil {
		s.Logger.WithFields(logging.HTTPFields(r.Method, r.URL.Path, status).Error(err).ToLogrus()).Warn("request failed")
	}
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   apperrors.SafeErrorMessage(err),
	})
}

func (s *Server) handleGenerateTreatmentSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req domain.TreatmentSummaryRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	outcome, err := s.Coordinator.GenerateTreatmentSummary(r.Context(), userID, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"document": map[string]interface{}{
			"title":   outcome.Document.Title,
			"summary": outcome.Document.Summary,
		},
		"cdt_codes": map[string]interface{}{
			"primary_code":        outcome.CodeSelection.PrimaryCode,
			"primary_description": outcome.CodeSelection.PrimaryDescription,
			"suggested_add_ons":   outcome.CodeSelection.AddOns,
			"notes":               outcome.CodeSelection.Notes,
		},
		"metadata": map[string]interface{}{
			"tokens_used":       outcome.TokensUsed,
			"generation_time_ms": outcome.GenerationTimeMS,
			"audience":          req.Audience,
			"tone":              req.Tone,
			"seed":              outcome.Seed,
			"document_version":  outcome.DocumentVersion,
		},
		"uuid":                  outcome.GenerationID,
		"is_regenerated":        outcome.IsRegenerated,
		"previous_version_uuid": outcome.PreviousVersionUUID,
		"seed":                  outcome.Seed,
	})
}

func (s *Server) handleGenerateInsuranceSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req domain.InsuranceSummaryRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	outcome, err := s.Coordinator.GenerateInsuranceSummary(r.Context(), userID, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	codeList := []map[string]interface{}{{
		"code":        outcome.CodeSelection.PrimaryCode,
		"description": outcome.CodeSelection.PrimaryDescription,
		"category":    string(domain.CategoryOrthodontic),
	}}
	for _, addOn := range outcome.CodeSelection.AddOns {
		codeList = append(codeList, map[string]interface{}{
			"code":        addOn,
			"description": "",
			"category":    string(domain.CategoryDiagnostic),
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"document": map[string]interface{}{
			"insurance_summary": outcome.Document.InsuranceSummary,
			"disclaimer":        outcome.Document.Disclaimer,
		},
		"cdt_codes": codeList,
		"metadata": map[string]interface{}{
			"tokens_used":        outcome.TokensUsed,
			"generation_time_ms": outcome.GenerationTimeMS,
			"seed":               outcome.Seed,
			"document_version":   outcome.DocumentVersion,
		},
		"uuid":                  outcome.GenerationID,
		"is_regenerated":        outcome.IsRegenerated,
		"previous_version_uuid": outcome.PreviousVersionUUID,
		"seed":                  outcome.Seed,
	})
}

type confirmRequest struct {
	ConfirmedPayload map[string]interface{} `json:"confirmed_payload"`
	Notes            string                  `json:"notes"`
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	generationID := chi.URLParam(r, "generation_id")

	var req confirmRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, r, apperrors.SchemaViolation("body", "malformed JSON"))
			return
		}
	}

	record, err := s.Confirmations.Confirm(r.Context(), confirmation.ConfirmInput{
		GenerationID:     generationID,
		UserID:           userID,
		ConfirmedPayload: req.ConfirmedPayload,
		Notes:            req.Notes,
	})
	if err != nil {
		if s.Metrics != nil {
			s.Metrics.Confirmations.WithLabelValues("rejected").Inc()
		}
		s.writeError(w, r, err)
		return
	}
	if s.Metrics != nil {
		s.Metrics.Confirmations.WithLabelValues("confirmed").Inc()
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":          true,
		"confirmation_id":  record.ID,
		"generation_id":    record.GenerationID,
		"user_id":          record.UserID,
		"document_type":    record.DocumentKind,
		"document_version": record.DocumentVersion,
		"confirmed_at":     record.ConfirmedAt.Format(time.RFC3339),
		"message":          "document confirmed",
	})
}

func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if r.Body == nil {
		s.writeError(w, r, apperrors.SchemaViolation("body", "request body is required"))
		return false
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		s.writeError(w, r, apperrors.SchemaViolation("body", "malformed or unrecognized JSON field"))
		return false
	}
	if err := validation.Struct(dst); err != nil {
		s.writeError(w, r, err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
