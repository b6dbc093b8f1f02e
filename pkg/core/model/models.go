package model

import "time"

// Band is a staff member's clinical band. Bands 6, 7 and 8a take part in
// general ward rotation; the two operational roles opt out of it.
type Band string

const (
	Band6          Band = "6"
	Band7          Band = "7"
	Band8a         Band = "8a"
	BandDispensary Band = "Dispensary"
	BandEAU        Band = "EAU Practitioner"
)

// IsValid reports whether the band is one of the known values
func (b Band) IsValid() bool {
	switch b {
	case Band6, Band7, Band8a, BandDispensary, BandEAU:
		return true
	}
	return false
}

// Seniority returns the ordering of clinical bands (6 < 7 < 8a).
// Operational roles have no seniority and return 0.
func (b Band) Seniority() int {
	switch b {
	case Band6:
		return 1
	case Band7:
		return 2
	case Band8a:
		return 3
	}
	return 0
}

// IsClinical reports whether the band takes part in general ward rotation
func (b Band) IsClinical() bool {
	return b == Band6 || b == Band7 || b == Band8a
}

// IsDispensaryRole reports whether the staff member holds the dedicated
// dispensary role. Dispensary holders are preferred for their own shifts
// and never enter the ward pool.
func (b Band) IsDispensaryRole() bool {
	return b == BandDispensary
}

// IsEAUPractitioner reports whether the staff member is an EAU
// Practitioner. EAU Practitioners are seeded onto the EAU ward and are
// never selected for dispensary duty.
func (b Band) IsEAUPractitioner() bool {
	return b == BandEAU
}

// HeadcountWeight is the contribution towards a ward's min/ideal
// pharmacist thresholds. EAU Practitioners count as half a pharmacist.
func (b Band) HeadcountWeight() float64 {
	if b == BandEAU {
		return 0.5
	}
	return 1.0
}

// UnavailableRule marks a recurring window on one weekday during which a
// staff member cannot be assigned. Times are "HH:MM" and the window is
// half-open: [Start, End).
type UnavailableRule struct {
	Weekday time.Weekday `json:"weekday"`
	Start   string       `json:"start"`
	End     string       `json:"end"`
}

// Staff represents a pharmacist or pharmacy technician
type Staff struct {
	ID                  string
	FirstName           string
	LastName            string
	Band                Band
	WarfarinTrained     bool
	SpecialistTraining  []string
	PrimaryDirectorate  string // empty if none
	PrimaryWards        []string
	TrainedDirectorates []string
	// IsDefaultStaff marks staff whose primary-ward placement the
	// optimization passes must not disturb
	IsDefaultStaff    bool
	WorkingDays       []time.Weekday
	NotAvailableRules []UnavailableRule
}

// FullName returns the staff member's display name
func (s Staff) FullName() string {
	return s.FirstName + " " + s.LastName
}

// WorksOn reports whether the staff member's working pattern includes the
// given weekday
func (s Staff) WorksOn(day time.Weekday) bool {
	for _, d := range s.WorkingDays {
		if d == day {
			return true
		}
	}
	return false
}

// HasPrimaryWard reports whether the staff member has at least one
// declared primary ward
func (s Staff) HasPrimaryWard() bool {
	return len(s.PrimaryWards) > 0
}

// IsPrimaryWard reports whether the named ward is one of the staff
// member's primary wards
func (s Staff) IsPrimaryWard(ward string) bool {
	for _, w := range s.PrimaryWards {
		if w == ward {
			return true
		}
	}
	return false
}

// IsTrainedIn reports whether the staff member is trained in the named
// directorate
func (s Staff) IsTrainedIn(directorate string) bool {
	for _, d := range s.TrainedDirectorates {
		if d == directorate {
			return true
		}
	}
	return false
}

// HasSpecialistTraining reports whether the staff member holds the named
// specialist training type
func (s Staff) HasSpecialistTraining(trainingType string) bool {
	for _, t := range s.SpecialistTraining {
		if t == trainingType {
			return true
		}
	}
	return false
}

// Ward is a single ward within a directorate
type Ward struct {
	Name                    string
	Directorate             string
	IsActive                bool
	MinPharmacists          float64
	IdealPharmacists        float64
	RequiresSpecialTraining bool
	TrainingType            string
}

// Directorate is a clinical grouping of wards. The ITU directorate is
// allowed to remain unstaffed; every other directorate is expected to end
// up with at least one assignee.
type Directorate struct {
	Name  string
	Wards []Ward
}

// ITUDirectorate is the distinguished directorate that may stay empty
const ITUDirectorate = "ITU"

// Clinic is a recurring outpatient clinic on a fixed weekday
type Clinic struct {
	ID        string
	Name      string
	DayOfWeek time.Weekday
	StartTime string // "HH:MM"
	EndTime   string // "HH:MM"
	// PreferredPharmacists is an ordered list of staff IDs to try first
	PreferredPharmacists     []string
	RequiresWarfarinTraining bool
	IncludeByDefaultInRota   bool
}

// AssignmentType classifies what a staff member is assigned to
type AssignmentType string

const (
	AssignmentWard       AssignmentType = "ward"
	AssignmentDispensary AssignmentType = "dispensary"
	AssignmentClinic     AssignmentType = "clinic"
	AssignmentManagement AssignmentType = "management"
)

// Assignment is one duty for one staff member on the rota's date.
// Ward and management assignments span the whole working day.
type Assignment struct {
	ID           string
	StaffID      string
	Type         AssignmentType
	Location     string
	StartTime    string // "HH:MM"
	EndTime      string // "HH:MM"
	IsLunchCover bool
}

// ConflictSeverity grades how serious an unmet requirement is
type ConflictSeverity string

const (
	SeverityWarning ConflictSeverity = "warning"
	SeverityError   ConflictSeverity = "error"
)

// Conflict records a requirement the engine could not satisfy. Conflicts
// never abort generation; they are surfaced for human review.
type Conflict struct {
	Type        string
	Description string
	Severity    ConflictSeverity
}

// RotaStatus is the lifecycle state of a generated rota
type RotaStatus string

const (
	StatusDraft     RotaStatus = "draft"
	StatusPublished RotaStatus = "published"
	StatusArchived  RotaStatus = "archived"
)

// Rota is the fully populated roster for one calendar date. At most one
// rota exists per date: regeneration deletes the previous rota first.
type Rota struct {
	ID          string
	Date        string // "2006-01-02"
	Assignments []Assignment
	Conflicts   []Conflict
	Status      RotaStatus
	GeneratedAt time.Time
}
