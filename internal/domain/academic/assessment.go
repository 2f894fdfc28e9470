package academic

import (
	"math"

	"github.com/ptit-hub/study-assistant/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GRADUATION OUTLOOK
// ══════════════════════════════════════════════════════════════════════════════

const (
	// MinGraduationGPA4 is the cumulative 4-point GPA required to graduate.
	MinGraduationGPA4 = 2.0

	// NominalSemesters is the planned programme length.
	NominalSemesters = 8
)

// GraduationTier is the on-time graduation likelihood.
type GraduationTier string

const (
	GraduationHigh   GraduationTier = "HIGH"
	GraduationMedium GraduationTier = "MEDIUM"
	GraduationLow    GraduationTier = "LOW"
)

// GraduationAssessment explains a tier with the figures it was derived from.
type GraduationAssessment struct {
	Tier GraduationTier

	GPA4             float64
	MeetsGPA         bool
	PassedCredits    float64
	RequiredCredits  float64
	RemainingCredits float64
	DebtCount        int
	DebtCredits      float64

	// EstimatedSemesters approximates completed semesters as graded credits
	// over the nominal per-semester load.
	EstimatedSemesters float64
}

// ResolveGPA4 prefers the backend's latest cumulative figure and falls back
// to converting the computed 10-point GPA.
func ResolveGPA4(stats Stats, gpa10 float64) float64 {
	if v, ok := stats.LatestCumGPA4(); ok {
		return v
	}
	return GradeToFourPoint(gpa10)
}

// EstimateCompletedSemesters returns gradedCredits / (requiredCredits / 8), or 0
// when requiredCredits is not positive.
func EstimateCompletedSemesters(gradedCredits, requiredCredits float64) float64 {
	if requiredCredits <= 0 {
		return 0
	}
	return gradedCredits / (requiredCredits / NominalSemesters)
}

// ClassifyGraduation applies the tier rules:
// HIGH when nothing remains, GPA is sufficient and there is no debt;
// LOW when credits remain, about eight semesters are done and GPA is short or
// debt exists; MEDIUM otherwise.
func ClassifyGraduation(remaining, estimatedSemesters, gpa4, debtCredits float64, debtCount int) GraduationTier {
	switch {
	case remaining <= 0 && gpa4 >= MinGraduationGPA4 && debtCount == 0:
		return GraduationHigh
	case remaining > 0 && estimatedSemesters >= NominalSemesters && (gpa4 < MinGraduationGPA4 || debtCredits > 0):
		return GraduationLow
	default:
		return GraduationMedium
	}
}

// AssessGraduation builds the assessment for computed stats and a 4-point GPA.
func AssessGraduation(cs ComputedStats, gpa4 float64) GraduationAssessment {
	a := GraduationAssessment{
		GPA4:               gpa4,
		MeetsGPA:           gpa4 >= MinGraduationGPA4,
		PassedCredits:      cs.TotalCreditsPassed,
		RequiredCredits:    cs.RequiredCredits,
		RemainingCredits:   cs.RemainingCredits(),
		DebtCount:          len(cs.DebtCourses),
		DebtCredits:        cs.DebtCredits(),
		EstimatedSemesters: EstimateCompletedSemesters(cs.TotalCreditsGPA, cs.RequiredCredits),
	}
	a.Tier = ClassifyGraduation(a.RemainingCredits, a.EstimatedSemesters, a.GPA4, a.DebtCredits, a.DebtCount)
	return a
}

// ══════════════════════════════════════════════════════════════════════════════
// ACADEMIC WARNING
// ══════════════════════════════════════════════════════════════════════════════

// SemesterGPAFloor triggers a warning when the latest semester GPA is below it.
const SemesterGPAFloor = 1.0

// cumulativeThresholds is indexed by study year (1-based, 4 means 4 and later).
var cumulativeThresholds = [...]float64{1.20, 1.40, 1.60, 1.80}

// CumulativeThreshold returns the cumulative GPA floor for a study year.
func CumulativeThreshold(year int) float64 {
	switch {
	case year <= 1:
		return cumulativeThresholds[0]
	case year >= len(cumulativeThresholds):
		return cumulativeThresholds[len(cumulativeThresholds)-1]
	default:
		return cumulativeThresholds[year-1]
	}
}

// StudyYear maps a semester index to its study year: ceil(index/2), minimum 1.
func StudyYear(semesterIndex int) int {
	if semesterIndex <= 0 {
		return 1
	}
	return int(math.Ceil(float64(semesterIndex) / 2))
}

// WarningReasonKind distinguishes the two triggers.
type WarningReasonKind string

const (
	ReasonSemesterGPA   WarningReasonKind = "semester_gpa"
	ReasonCumulativeGPA WarningReasonKind = "cumulative_gpa"
)

// WarningReason is one triggered condition.
type WarningReason struct {
	Kind      WarningReasonKind
	Value     float64
	Threshold float64
}

// WarningAssessment is the result of the warning check. Level is 1 when any
// reason triggered and 0 otherwise; higher levels need history across
// semesters that is not tracked.
type WarningAssessment struct {
	Level         int
	SemesterKey   string
	SemesterIndex int
	Year          int
	Threshold     float64
	SemesterGPA4  float64
	CumulativeGPA float64
	HasCumulative bool
	Reasons       []WarningReason
}

// ErrNoSemesterStats is returned when semester GPAs are missing.
var ErrNoSemesterStats = shared.NewDomainError("academic", "AssessAcademicWarning", shared.ErrDataIncomplete,
	"no per-semester GPA data")

// AssessAcademicWarning checks the latest semester GPA against the floor and
// the cumulative GPA against the study-year threshold.
func AssessAcademicWarning(stats Stats) (WarningAssessment, error) {
	lastKey, ok := LatestSemesterKey(stats.SemGPA4)
	if !ok {
		return WarningAssessment{}, ErrNoSemesterStats
	}

	a := WarningAssessment{
		SemesterKey:   lastKey,
		SemesterIndex: SemesterNumber(lastKey),
		SemesterGPA4:  stats.SemGPA4[lastKey],
	}
	a.Year = StudyYear(a.SemesterIndex)
	a.Threshold = CumulativeThreshold(a.Year)

	if cum, ok := stats.CumGPA4[lastKey]; ok {
		a.CumulativeGPA, a.HasCumulative = cum, true
	} else if cum, ok := stats.LatestCumGPA4(); ok {
		a.CumulativeGPA, a.HasCumulative = cum, true
	}

	if a.SemesterGPA4 < SemesterGPAFloor {
		a.Reasons = append(a.Reasons, WarningReason{
			Kind:      ReasonSemesterGPA,
			Value:     a.SemesterGPA4,
			Threshold: SemesterGPAFloor,
		})
	}
	if a.HasCumulative && a.CumulativeGPA < a.Threshold {
		a.Reasons = append(a.Reasons, WarningReason{
			Kind:      ReasonCumulativeGPA,
			Value:     a.CumulativeGPA,
			Threshold: a.Threshold,
		})
	}
	if len(a.Reasons) > 0 {
		a.Level = 1
	}
	return a, nil
}
