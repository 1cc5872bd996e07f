// Package prompt builds the deterministic (system_prompt, user_prompt)
// pair sent to the LLM client from a validated request (spec.md §4.2).
// Every exported function here is pure: the same input produces a
// byte-identical output.
package prompt

import (
	"fmt"
	"strings"

	"github.com/smilearc/casegen/internal/domain"
	"github.com/smilearc/casegen/pkg/schema"
)

const treatmentSummarySystemPrompt = `You are a clinical documentation assistant generating a patient-facing treatment summary for an orthodontic case.

Hard restrictions:
- Do not state or imply a diagnosis.
- Do not guarantee treatment outcomes or timelines.
- Do not mention pricing, billing, or insurance coverage.
- Do not introduce clinical facts beyond what is provided in the input.
- Clinical facts must remain identical regardless of the requested tone.

When the target audience is "patient":
- Avoid clinical jargon; explain concepts rather than direct the reader.
- Do not mention specific appliance types unless explicitly provided in the input.

Produce a JSON object with exactly two string fields: "title" and "summary", both non-empty.`

const insuranceSummarySystemPrompt = `You are a clinical documentation assistant generating an insurance-facing administrative summary for an orthodontic case.

Hard restrictions:
- Use conservative, administrative language; do not speculate about coverage or claim outcomes.
- Do not state or imply a diagnosis.
- Do not introduce clinical facts beyond what is provided in the input.

Every generated summary MUST append the following disclaimer verbatim:
"` + schema.InsuranceSummaryDisclaimer + `"

Produce a JSON object with exactly two string fields: "insurance_summary" and "disclaimer".`

// SystemPromptFor returns the static system prompt for a document kind.
// These prompts are loaded once and never mutated at request time.
func SystemPromptFor(kind domain.DocumentKind) string {
	switch kind {
	case domain.DocumentKindInsuranceSummary:
		return insuranceSummarySystemPrompt
	default:
		return treatmentSummarySystemPrompt
	}
}

type kv struct {
	label string
	value string
}

func renderBlock(lines []string, pairs []kv) []string {
	for _, p := range pairs {
		if p.value == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("**%s:** %s", p.label, p.value))
	}
	return lines
}

// BuildTreatmentSummaryPrompt renders the user prompt for a treatment
// summary request in the fixed field order spec.md §4.2 requires.
// req.ApplyDefaults() MUST have already been called.
func BuildTreatmentSummaryPrompt(req domain.TreatmentSummaryRequest) string {
	var lines []string

	if ageGroup, known := req.AgeGroup(); known {
		lines = append(lines, fmt.Sprintf("Patient Age: %d (%s)", *req.PatientAge, ageGroup))
	}

	whitening := ""
	if req.WhiteningIncluded {
		whitening = "yes"
	}

	lines = renderBlock(lines, []kv{
		{"Patient Name", req.PatientName},
		{"Practice Name", req.PracticeName},
		{"Treatment Type", req.TreatmentType},
		{"Area Treated", string(req.AreaTreated)},
		{"Duration Range", req.DurationRange},
		{"Case Difficulty", req.CaseDifficulty},
		{"Monitoring Approach", req.MonitoringApproach},
		{"Attachments", req.Attachments},
		{"Whitening Included", whitening},
		{"Dentist Note", req.DentistNote},
	})

	lines = append(lines, fmt.Sprintf("Target Audience: %s", req.Audience))
	lines = append(lines, fmt.Sprintf("Desired Tone: %s", req.Tone))

	return strings.Join(lines, "\n")
}

// BuildInsuranceSummaryPrompt renders the user prompt for an insurance
// summary request in a fixed field order.
func BuildInsuranceSummaryPrompt(req domain.InsuranceSummaryRequest) string {
	var lines []string

	lines = append(lines, fmt.Sprintf("Tier: %s", req.Tier))
	lines = append(lines, fmt.Sprintf("Patient Age Group: %s", req.AgeGroup()))

	retainers := ""
	if req.RetainersIncluded {
		retainers = "yes"
	}

	var assets []string
	if req.DiagnosticAssets.IntraoralPhotos {
		assets = append(assets, "intraoral_photos")
	}
	if req.DiagnosticAssets.PanoramicXray {
		assets = append(assets, "panoramic_xray")
	}
	if req.DiagnosticAssets.FMX {
		assets = append(assets, "fmx")
	}

	lines = renderBlock(lines, []kv{
		{"Arches", string(req.Arches)},
		{"Retainers Included", retainers},
		{"Diagnostic Assets", strings.Join(assets, ", ")},
		{"Monitoring Approach", req.MonitoringApproach},
		{"Notes", req.Notes},
	})

	return strings.Join(lines, "\n")
}
