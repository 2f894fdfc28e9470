// Package records implements the Records Provider: the read-only client for
// the academic-records backend, plus a file-backed provider for offline use.
package records

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// ══════════════════════════════════════════════════════════════════════════════
// LENIENT SCALARS
// The backend stores results as loosely-typed documents. These types accept
// what it actually sends and never fail decoding of the whole snapshot.
// ══════════════════════════════════════════════════════════════════════════════

// NumberDTO is a JSON number that may be absent or hold something else.
// Valid is false for null, strings, booleans and objects.
type NumberDTO struct {
	Value float64
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *NumberDTO) UnmarshalJSON(data []byte) error {
	*n = NumberDTO{}
	if isNull(data) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		n.Value, n.Valid = f, true
	}
	return nil
}

// Ptr returns a pointer to the value, or nil when invalid.
func (n NumberDTO) Ptr() *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}

// ScoreDTO is a 4-point figure sent either as a number or a numeric string.
type ScoreDTO struct {
	Value float64
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *ScoreDTO) UnmarshalJSON(data []byte) error {
	*s = ScoreDTO{}
	if isNull(data) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		s.Value, s.Valid = f, true
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(str), 64); err == nil {
			s.Value, s.Valid = f, true
		}
	}
	return nil
}

// FlexStringDTO accepts a string, a number or null.
type FlexStringDTO string

// UnmarshalJSON implements json.Unmarshaler.
func (s *FlexStringDTO) UnmarshalJSON(data []byte) error {
	*s = ""
	if isNull(data) {
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = FlexStringDTO(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err == nil {
		*s = FlexStringDTO(num.String())
	}
	return nil
}

// FlexBoolDTO accepts true/false, "true"/"false", 1/0 or null. Valid is
// false for null and anything unrecognised.
type FlexBoolDTO struct {
	Value bool
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *FlexBoolDTO) UnmarshalJSON(data []byte) error {
	*b = FlexBoolDTO{}
	if isNull(data) {
		return nil
	}
	var v bool
	if err := json.Unmarshal(data, &v); err == nil {
		b.Value, b.Valid = v, true
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		b.Value, b.Valid = f != 0, true
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		if v, err := strconv.ParseBool(strings.TrimSpace(str)); err == nil {
			b.Value, b.Valid = v, true
		}
	}
	return nil
}

// Or returns the value, or def when absent or unrecognised.
func (b FlexBoolDTO) Or(def bool) bool {
	if !b.Valid {
		return def
	}
	return b.Value
}

func isNull(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) == 0 || bytes.Equal(data, []byte("null"))
}

// ══════════════════════════════════════════════════════════════════════════════
// CONTEXT DTOs
// ══════════════════════════════════════════════════════════════════════════════

// ContextDTO is the body of GET /api/chatbot/context.
type ContextDTO struct {
	User UserDTO `json:"user"`

	// Results maps semester key -> course code -> result.
	Results map[string]map[string]ResultDTO `json:"results"`

	Stats StatsDTO `json:"stats"`

	// Specialization is "dev", "design" or null.
	Specialization FlexStringDTO `json:"specialization"`

	// Curriculum is null when the student has no programme assigned.
	Curriculum *CurriculumDTO `json:"curriculum"`

	Deadlines []DeadlineDTO `json:"deadlines"`
}

// UserDTO identifies the student.
type UserDTO struct {
	ID    FlexStringDTO `json:"id"`
	Name  FlexStringDTO `json:"name"`
	Email FlexStringDTO `json:"email,omitempty"`
}

// ResultDTO is one course result. Name and credit may override the curriculum
// in the backend UI but are not used for computations.
type ResultDTO struct {
	Grade  NumberDTO     `json:"grade"`
	Status FlexStringDTO `json:"status"`
	Name   FlexStringDTO `json:"name,omitempty"`
	Credit NumberDTO     `json:"credit"`
}

// StatsDTO carries precomputed 4-point GPAs keyed by semester.
type StatsDTO struct {
	SemGPA4 map[string]ScoreDTO `json:"semGpa4"`
	CumGPA4 map[string]ScoreDTO `json:"cumGpa4"`
}

// CurriculumDTO is the programme document.
type CurriculumDTO struct {
	Name            FlexStringDTO `json:"name"`
	Specialization  FlexStringDTO `json:"specialization,omitempty"`
	RequiredCredits NumberDTO     `json:"requiredCredits"`
	Semesters       []SemesterDTO `json:"semesters"`
}

// SemesterDTO is one planned term.
type SemesterDTO struct {
	Semester FlexStringDTO `json:"semester"`
	Courses  []CourseDTO   `json:"courses"`
}

// CourseDTO is one curriculum course.
type CourseDTO struct {
	Code   FlexStringDTO `json:"code"`
	Name   FlexStringDTO `json:"name"`
	Credit NumberDTO     `json:"credit"`

	// CountInGPA and CountInCredits default to true when absent,
	// matching the backend schema defaults.
	CountInGPA     FlexBoolDTO `json:"countInGpa"`
	CountInCredits FlexBoolDTO `json:"countInCredits"`

	ExamFormat FlexStringDTO `json:"examFormat"`
	Category   FlexStringDTO `json:"category"`
}

// DeadlineDTO is a deadline or exam slot. A wrong-typed field is read as
// absent; the item itself is kept.
type DeadlineDTO struct {
	Title      FlexStringDTO `json:"title"`
	CourseCode FlexStringDTO `json:"courseCode,omitempty"`
	StartAt    FlexStringDTO `json:"startAt"`
	EndAt      FlexStringDTO `json:"endAt"`
	IsExam     FlexBoolDTO   `json:"isExam"`
	Status     FlexStringDTO `json:"status"`
}

// DeadlinesResponseDTO is the body of GET /api/deadlines.
type DeadlinesResponseDTO struct {
	Data []DeadlineDTO `json:"data"`
}

// UserNameDTO is the body of GET /api/users/name.
type UserNameDTO struct {
	Name FlexStringDTO `json:"name"`
}
