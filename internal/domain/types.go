// Package domain holds the closed enums and small value types shared
// across the request/response, selection, and audit layers (spec.md §3).
package domain

// CaseTier is the case severity bucket used for treatment-summary
// requests and, collapsed, for insurance-summary requests.
type CaseTier string

const (
	TierExpress  CaseTier = "express"
	TierMild     CaseTier = "mild"
	TierModerate CaseTier = "moderate"
	TierComplex  CaseTier = "complex"
)

func (t CaseTier) Valid() bool {
	switch t {
	case TierExpress, TierMild, TierModerate, TierComplex:
		return true
	}
	return false
}

// InsuranceTier is the collapsed tier space accepted on the insurance
// route: express and mild merge into express_mild.
type InsuranceTier string

const (
	InsuranceTierExpressMild InsuranceTier = "express_mild"
	InsuranceTierModerate    InsuranceTier = "moderate"
	InsuranceTierComplex     InsuranceTier = "complex"
)

func (t InsuranceTier) Valid() bool {
	switch t {
	case InsuranceTierExpressMild, InsuranceTierModerate, InsuranceTierComplex:
		return true
	}
	return false
}

// ToSelectorTier maps the collapsed insurance tier back to the rule
// table's tier space for lookup (spec.md §4.1 step 1). express_mild
// resolves to express; moderate/complex pass through unchanged.
func (t InsuranceTier) ToSelectorTier() CaseTier {
	if t == InsuranceTierExpressMild {
		return TierExpress
	}
	return CaseTier(t)
}

// AgeGroup is derived from patient age: <18 is adolescent, >=18 is adult.
type AgeGroup string

const (
	AgeGroupAdolescent AgeGroup = "adolescent"
	AgeGroupAdult      AgeGroup = "adult"
)

func (g AgeGroup) Valid() bool {
	return g == AgeGroupAdolescent || g == AgeGroupAdult
}

// DeriveAgeGroup implements spec.md §3's boundary rule: age < 18 is
// adolescent, age >= 18 is adult.
func DeriveAgeGroup(age int) AgeGroup {
	if age < 18 {
		return AgeGroupAdolescent
	}
	return AgeGroupAdult
}

// DocumentKind is the kind of narrative document generated.
type DocumentKind string

const (
	DocumentKindTreatmentSummary DocumentKind = "treatment_summary"
	DocumentKindInsuranceSummary DocumentKind = "insurance_summary"
	// DocumentKindProgressNotes is declared but not reachable via any
	// HTTP route (spec.md §1 non-goals): "progress-notes generation
	// (declared but not implemented in source)".
	DocumentKindProgressNotes DocumentKind = "progress_notes"
)

// Audience controls the register of the generated document.
type Audience string

const (
	AudiencePatient  Audience = "patient"
	AudienceInternal Audience = "internal"
)

func (a Audience) Valid() bool {
	return a == AudiencePatient || a == AudienceInternal
}

// Tone controls the voice of the generated document.
type Tone string

const (
	ToneConcise    Tone = "concise"
	ToneCasual     Tone = "casual"
	ToneReassuring Tone = "reassuring"
	ToneClinical   Tone = "clinical"
)

func (t Tone) Valid() bool {
	switch t {
	case ToneConcise, ToneCasual, ToneReassuring, ToneClinical:
		return true
	}
	return false
}

// Arches identifies which arch(es) a case treats.
type Arches string

const (
	ArchesUpper Arches = "upper"
	ArchesLower Arches = "lower"
	ArchesBoth  Arches = "both"
)

func (a Arches) Valid() bool {
	switch a {
	case ArchesUpper, ArchesLower, ArchesBoth:
		return true
	}
	return false
}

// DiagnosticAssetKind enumerates the diagnostic assets an insurance
// request may flag, each mapping to an add-on code (spec.md §4.1 step 5).
type DiagnosticAssetKind string

const (
	AssetIntraoralPhotos DiagnosticAssetKind = "intraoral_photos"
	AssetPanoramicXray   DiagnosticAssetKind = "panoramic_xray"
	AssetFMX             DiagnosticAssetKind = "fmx"
)

// DiagnosticAssets is the boolean map of asset kind to presence.
type DiagnosticAssets struct {
	IntraoralPhotos bool `json:"intraoral_photos"`
	PanoramicXray   bool `json:"panoramic_xray"`
	FMX             bool `json:"fmx"`
}

// AddOnCodes returns the add-on procedure codes for the flagged assets,
// in the fixed order the selector must emit them (spec.md §4.1 step 5,
// §8 selector scenarios): intraoral_photos, then panoramic_xray, then fmx.
func (a DiagnosticAssets) AddOnCodes() []string {
	var codes []string
	if a.IntraoralPhotos {
		codes = append(codes, "D0350")
	}
	if a.PanoramicXray {
		codes = append(codes, "D0330")
	}
	if a.FMX {
		codes = append(codes, "D0210")
	}
	return codes
}

// ProcedureCategory classifies a ProcedureCode row.
type ProcedureCategory string

const (
	CategoryOrthodontic ProcedureCategory = "orthodontic"
	CategoryDiagnostic  ProcedureCategory = "diagnostic"
	CategoryRetention   ProcedureCategory = "retention"
)

// GenerationStatus is the terminal status of an AuditRecord.
type GenerationStatus string

const (
	StatusSuccess GenerationStatus = "success"
	StatusError   GenerationStatus = "error"
)
