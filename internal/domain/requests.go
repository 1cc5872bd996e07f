package domain

// TreatmentSummaryRequest is the decoded body of
// POST /api/v1/generate-treatment-summary (spec.md §6). All fields are
// optional; zero values receive the defaults applied in
// ApplyDefaults.
type TreatmentSummaryRequest struct {
	Tier                CaseTier `json:"tier" validate:"omitempty,oneof=express mild moderate complex"`
	PatientAge          *int     `json:"patient_age" validate:"omitempty,gte=0,lte=120"`
	PatientName         string   `json:"patient_name" validate:"omitempty,max=200"`
	PracticeName        string   `json:"practice_name" validate:"omitempty,max=200"`
	TreatmentType       string   `json:"treatment_type"`
	AreaTreated         Arches   `json:"area_treated" validate:"omitempty,oneof=upper lower both"`
	DurationRange       string   `json:"duration_range" validate:"omitempty,min=1,max=50"`
	CaseDifficulty      string   `json:"case_difficulty" validate:"omitempty,oneof=simple moderate complex"`
	MonitoringApproach  string   `json:"monitoring_approach" validate:"omitempty,oneof=remote mixed in-clinic"`
	Attachments         string   `json:"attachments" validate:"omitempty,oneof=none some extensive"`
	WhiteningIncluded   bool     `json:"whitening_included"`
	DentistNote         string   `json:"dentist_note" validate:"omitempty,max=500"`
	Audience            Audience `json:"audience" validate:"omitempty,oneof=patient internal"`
	Tone                Tone     `json:"tone" validate:"omitempty,oneof=concise casual reassuring clinical"`
	IsRegeneration      bool     `json:"is_regeneration"`
	PreviousVersionUUID string   `json:"previous_version_uuid"`
}

// ApplyDefaults fills in the defaults spec.md §6 assigns to absent
// optional fields. It returns nothing and leaves PatientAge alone;
// AgeGroup derives the age group from it.
func (r *TreatmentSummaryRequest) ApplyDefaults() {
	if r.TreatmentType == "" {
		r.TreatmentType = "clear aligners"
	}
	if r.AreaTreated == "" {
		r.AreaTreated = ArchesBoth
	}
	if r.DurationRange == "" {
		r.DurationRange = "4-6 months"
	}
	if r.Audience == "" {
		r.Audience = AudiencePatient
	}
	if r.Tone == "" {
		r.Tone = ToneReassuring
	}
}

// AgeGroup derives the request's age group from PatientAge, returning
// false if no age was supplied.
func (r *TreatmentSummaryRequest) AgeGroup() (AgeGroup, bool) {
	if r.PatientAge == nil {
		return "", false
	}
	return DeriveAgeGroup(*r.PatientAge), true
}

// InsuranceSummaryRequest is the decoded body of
// POST /api/v1/generate-insurance-summary (spec.md §6).
type InsuranceSummaryRequest struct {
	Tier                InsuranceTier    `json:"tier" validate:"required,oneof=express_mild moderate complex"`
	Arches              Arches           `json:"arches" validate:"omitempty,oneof=upper lower both"`
	AgeGroupValue       AgeGroup         `json:"age_group" validate:"required,oneof=adolescent adult"`
	RetainersIncluded   bool             `json:"retainers_included"`
	DiagnosticAssets    DiagnosticAssets `json:"diagnostic_assets"`
	MonitoringApproach  string           `json:"monitoring_approach"`
	Notes               string           `json:"notes"`
	IsRegeneration      bool             `json:"is_regeneration"`
	PreviousVersionUUID string           `json:"previous_version_uuid"`
}

// AgeGroup returns the request's declared age group.
func (r *InsuranceSummaryRequest) AgeGroup() AgeGroup {
	return r.AgeGroupValue
}
