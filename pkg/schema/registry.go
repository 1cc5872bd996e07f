// Package schema holds the static document-kind -> schema-version
// mapping attached to every generation (spec.md §4 item 12).
package schema

import "github.com/smilearc/casegen/internal/domain"

var versions = map[domain.DocumentKind]string{
	domain.DocumentKindTreatmentSummary: "treatment_summary.v2",
	domain.DocumentKindInsuranceSummary: "insurance_summary.v1",
	domain.DocumentKindProgressNotes:    "progress_notes.v1",
}

// VersionFor returns the current schema version for a document kind,
// and false if the kind is unknown.
func VersionFor(kind domain.DocumentKind) (string, bool) {
	v, ok := versions[kind]
	return v, ok
}

// TreatmentSummaryOutput is the treatment-summary LLM output schema
// (spec.md §4.3): title and summary are mandatory and non-empty;
// implementers may extend with additional fields.
type TreatmentSummaryOutput struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

func (o TreatmentSummaryOutput) Valid() bool {
	return o.Title != "" && o.Summary != ""
}

// InsuranceSummaryDisclaimer is the fixed disclaimer every insurance
// summary MUST carry byte-for-byte (spec.md §4.3).
const InsuranceSummaryDisclaimer = "This summary is provided for administrative and insurance-processing purposes only. It does not constitute a diagnosis, treatment guarantee, or coverage determination. Final coverage is subject to the patient's plan terms and payer adjudication."

// InsuranceSummaryOutput is the insurance-summary LLM output schema.
type InsuranceSummaryOutput struct {
	InsuranceSummary string `json:"insurance_summary"`
	Disclaimer       string `json:"disclaimer"`
}

func (o InsuranceSummaryOutput) Valid() bool {
	return o.InsuranceSummary != "" && o.Disclaimer == InsuranceSummaryDisclaimer
}
