// Package academic holds the student records model and the pure derivations
// computed from it: GPA, credits, debt, graduation outlook and academic
// warning. It also resolves course mentions in a question against a curriculum.
// Nothing in this package performs I/O.
package academic

import (
	"sort"
	"strings"
)

// ══════════════════════════════════════════════════════════════════════════════
// CURRICULUM
// ══════════════════════════════════════════════════════════════════════════════

// Course is one entry of a curriculum semester.
type Course struct {
	Code   string
	Name   string
	Credit float64

	// CountInGPA marks the course as GPA-eligible.
	CountInGPA bool

	// CountInCredits marks the course as counting toward required credits.
	CountInCredits bool

	// ExamFormat is free text (written, multiple choice, oral, project...). Empty when unknown.
	ExamFormat string

	// Category is the course block (general, foundation, major, internship...).
	Category string
}

// Semester groups the courses planned for one term of the programme.
type Semester struct {
	Name    string
	Courses []Course
}

// Curriculum is the programme a student follows.
type Curriculum struct {
	Name string

	// RequiredCredits is the figure the programme advertises. Credit
	// computations sum CountInCredits courses instead.
	RequiredCredits float64

	Semesters []Semester
}

// Courses returns every course in curriculum order.
func (c *Curriculum) Courses() []Course {
	if c == nil {
		return nil
	}
	var out []Course
	for _, sem := range c.Semesters {
		out = append(out, sem.Courses...)
	}
	return out
}

// CourseByCode indexes the curriculum by course code. Later duplicates win.
func (c *Curriculum) CourseByCode() map[string]Course {
	index := make(map[string]Course)
	for _, course := range c.Courses() {
		index[course.Code] = course
	}
	return index
}

// IsEmpty reports whether the curriculum has no courses at all.
func (c *Curriculum) IsEmpty() bool {
	return len(c.Courses()) == 0
}

// ══════════════════════════════════════════════════════════════════════════════
// RESULTS
// ══════════════════════════════════════════════════════════════════════════════

// ResultStatus is the outcome recorded for a course attempt.
type ResultStatus string

const (
	StatusPassed     ResultStatus = "passed"
	StatusFailed     ResultStatus = "failed"
	StatusInProgress ResultStatus = "in-progress"
)

// ParseResultStatus lower-cases and trims raw. Unknown values are kept as-is
// and treated as neither passed nor failed.
func ParseResultStatus(raw string) ResultStatus {
	return ResultStatus(strings.ToLower(strings.TrimSpace(raw)))
}

// CourseResult is a student's result for one course in one semester.
type CourseResult struct {
	// Grade is on the 10-point scale. nil when no numeric grade was recorded.
	Grade  *float64
	Status ResultStatus
}

// HasGrade reports whether a numeric grade is present.
func (r CourseResult) HasGrade() bool {
	return r.Grade != nil
}

// GradeOr returns the grade or def when absent.
func (r CourseResult) GradeOr(def float64) float64 {
	if r.Grade == nil {
		return def
	}
	return *r.Grade
}

// Results maps semester key -> course code -> result.
type Results map[string]map[string]CourseResult

// IsEmpty reports whether no semester holds any result.
func (r Results) IsEmpty() bool {
	for _, sem := range r {
		if len(sem) > 0 {
			return false
		}
	}
	return true
}

// ResultEntry is one flattened result with its semester key.
type ResultEntry struct {
	Semester string
	Code     string
	Result   CourseResult
}

// Entries flattens results in semester order, then by course code, so every
// derivation iterates deterministically.
func (r Results) Entries() []ResultEntry {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	SortSemesterKeys(keys)

	var out []ResultEntry
	for _, sem := range keys {
		codes := make([]string, 0, len(r[sem]))
		for code := range r[sem] {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		for _, code := range codes {
			out = append(out, ResultEntry{Semester: sem, Code: code, Result: r[sem][code]})
		}
	}
	return out
}

// Latest keeps one entry per course code, the attempt from the latest
// semester, in semester order. A retaken course counts once.
func (r Results) Latest() []ResultEntry {
	all := r.Entries()
	last := make(map[string]int, len(all))
	for i, e := range all {
		last[e.Code] = i
	}

	out := make([]ResultEntry, 0, len(last))
	for i, e := range all {
		if last[e.Code] == i {
			out = append(out, e)
		}
	}
	return out
}

// Lookup returns the result for code from the latest semester that has one.
func (r Results) Lookup(code string) (CourseResult, bool) {
	var (
		found CourseResult
		ok    bool
	)
	for _, e := range r.Entries() {
		if e.Code == code {
			found, ok = e.Result, true
		}
	}
	return found, ok
}

// ══════════════════════════════════════════════════════════════════════════════
// PRECOMPUTED STATS
// ══════════════════════════════════════════════════════════════════════════════

// Stats carries the backend's authoritative 4-point figures keyed by semester.
type Stats struct {
	SemGPA4 map[string]float64
	CumGPA4 map[string]float64
}

// LatestCumGPA4 returns the cumulative GPA of the latest semester.
func (s Stats) LatestCumGPA4() (float64, bool) {
	key, ok := LatestSemesterKey(s.CumGPA4)
	if !ok {
		return 0, false
	}
	return s.CumGPA4[key], true
}

// ══════════════════════════════════════════════════════════════════════════════
// DEADLINES
// ══════════════════════════════════════════════════════════════════════════════

// DeadlineStatus is the lifecycle state of a deadline or exam item.
type DeadlineStatus string

const (
	DeadlineUpcoming  DeadlineStatus = "upcoming"
	DeadlineOngoing   DeadlineStatus = "ongoing"
	DeadlineOverdue   DeadlineStatus = "overdue"
	DeadlineCompleted DeadlineStatus = "completed"
)

// IsPending reports upcoming or ongoing.
func (s DeadlineStatus) IsPending() bool {
	return s == DeadlineUpcoming || s == DeadlineOngoing
}

// IsPast reports overdue or completed.
func (s DeadlineStatus) IsPast() bool {
	return s == DeadlineOverdue || s == DeadlineCompleted
}

// Deadline is an assignment deadline or, with IsExam, an exam slot.
type Deadline struct {
	Title      string
	CourseCode string
	IsExam     bool
	Status     DeadlineStatus

	// StartAt and EndAt are raw ISO-8601 strings. They are parsed only for
	// display so a malformed value never drops the item.
	StartAt string
	EndAt   string
}

// When returns EndAt, falling back to StartAt.
func (d Deadline) When() string {
	if d.EndAt != "" {
		return d.EndAt
	}
	return d.StartAt
}

// SortDeadlinesByEnd orders items by their EndAt string, earliest first.
// ISO-8601 strings in one zone sort chronologically; blanks sort first.
func SortDeadlinesByEnd(items []Deadline) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].EndAt < items[j].EndAt
	})
}

// SortDeadlinesByWhen orders items by When().
func SortDeadlinesByWhen(items []Deadline) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].When() < items[j].When()
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT
// ══════════════════════════════════════════════════════════════════════════════

// User identifies the student the snapshot belongs to.
type User struct {
	ID    string
	Name  string
	Email string
}

// Snapshot is everything the records backend knows about one student.
type Snapshot struct {
	User           User
	Specialization string

	// Curriculum is nil when the backend has none for the student.
	Curriculum *Curriculum

	Results   Results
	Stats     Stats
	Deadlines []Deadline
}

// CurriculumOrEmpty never returns nil.
func (s *Snapshot) CurriculumOrEmpty() *Curriculum {
	if s == nil || s.Curriculum == nil {
		return &Curriculum{}
	}
	return s.Curriculum
}
