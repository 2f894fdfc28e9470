package academic

import "github.com/ptit-hub/study-assistant/internal/domain/shared"

// DebtCourse is a failed course that has to be retaken.
type DebtCourse struct {
	Code   string
	Name   string
	Credit float64

	// Grade is the recorded grade, 0 when none was recorded.
	Grade float64
}

// ComputedStats is derived from results and curriculum on every request.
type ComputedStats struct {
	// GPA10 is the credit-weighted average of GPA-eligible graded courses,
	// rounded to two decimals. 0 when nothing is eligible.
	GPA10 float64

	TotalCreditsPassed float64
	TotalCreditsGPA    float64
	RequiredCredits    float64
	RequiredCreditsGPA float64
	DebtCourses        []DebtCourse
}

// DebtCredits sums the credits of all debt courses.
func (s ComputedStats) DebtCredits() float64 {
	var total float64
	for _, d := range s.DebtCourses {
		total += d.Credit
	}
	return total
}

// RemainingCredits is RequiredCredits minus TotalCreditsPassed. It may be negative.
func (s ComputedStats) RemainingCredits() float64 {
	return s.RequiredCredits - s.TotalCreditsPassed
}

// ErrNoRecords is returned when results or curriculum are missing.
var ErrNoRecords = shared.NewDomainError("academic", "ComputeStats", shared.ErrDataIncomplete,
	"no results or curriculum data found")

// ComputeStats derives GPA, credit and debt figures.
//
// A result counts toward GPA when its course is GPA-eligible, has positive
// credit and a numeric grade. It counts as passed credit when the course
// counts in credits and the status is "passed", and as debt when the status is
// "failed". Only the latest attempt of a retaken course is counted. Results
// for codes missing from the curriculum are ignored.
func ComputeStats(results Results, curriculum *Curriculum) (ComputedStats, error) {
	if results.IsEmpty() || curriculum == nil || curriculum.IsEmpty() {
		return ComputedStats{}, ErrNoRecords
	}

	courses := curriculum.CourseByCode()

	var (
		stats  ComputedStats
		points float64
	)
	for _, e := range results.Latest() {
		course, ok := courses[e.Code]
		if !ok || course.Credit <= 0 {
			continue
		}

		if course.CountInGPA && e.Result.HasGrade() {
			points += *e.Result.Grade * course.Credit
			stats.TotalCreditsGPA += course.Credit
		}

		if !course.CountInCredits {
			continue
		}
		switch e.Result.Status {
		case StatusPassed:
			stats.TotalCreditsPassed += course.Credit
		case StatusFailed:
			name := course.Name
			if name == "" {
				name = e.Code
			}
			stats.DebtCourses = append(stats.DebtCourses, DebtCourse{
				Code:   e.Code,
				Name:   name,
				Credit: course.Credit,
				Grade:  e.Result.GradeOr(0),
			})
		}
	}

	if stats.TotalCreditsGPA > 0 {
		stats.GPA10 = round2(points / stats.TotalCreditsGPA)
	}

	for _, c := range curriculum.Courses() {
		if c.CountInCredits {
			stats.RequiredCredits += c.Credit
		}
		if c.CountInGPA {
			stats.RequiredCreditsGPA += c.Credit
		}
	}

	return stats, nil
}
