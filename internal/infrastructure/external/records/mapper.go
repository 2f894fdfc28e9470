package records

import (
	"strings"

	"github.com/ptit-hub/study-assistant/internal/domain/academic"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAPPER - DTO to domain transformations
// ══════════════════════════════════════════════════════════════════════════════

// DefaultRequiredCredits is the backend schema default for a curriculum.
const DefaultRequiredCredits = 150

// Mapper turns backend documents into domain records. It applies the backend
// schema defaults so the domain never sees a missing flag or status.
type Mapper struct{}

// NewMapper creates a new Mapper instance.
func NewMapper() *Mapper {
	return &Mapper{}
}

// SnapshotFromDTO converts a context body. A nil dto yields nil.
func (m *Mapper) SnapshotFromDTO(dto *ContextDTO) *academic.Snapshot {
	if dto == nil {
		return nil
	}

	snap := &academic.Snapshot{
		User: academic.User{
			ID:    string(dto.User.ID),
			Name:  strings.TrimSpace(string(dto.User.Name)),
			Email: string(dto.User.Email),
		},
		Curriculum: m.CurriculumFromDTO(dto.Curriculum),
		Results:    m.ResultsFromDTO(dto.Results),
		Stats: academic.Stats{
			SemGPA4: scores(dto.Stats.SemGPA4),
			CumGPA4: scores(dto.Stats.CumGPA4),
		},
		Deadlines:      m.DeadlinesFromDTO(dto.Deadlines),
		Specialization: string(dto.Specialization),
	}
	return snap
}

// CurriculumFromDTO converts the programme document. nil stays nil.
func (m *Mapper) CurriculumFromDTO(dto *CurriculumDTO) *academic.Curriculum {
	if dto == nil {
		return nil
	}

	cur := &academic.Curriculum{
		Name:            string(dto.Name),
		RequiredCredits: DefaultRequiredCredits,
		Semesters:       make([]academic.Semester, 0, len(dto.Semesters)),
	}
	if dto.RequiredCredits.Valid {
		cur.RequiredCredits = dto.RequiredCredits.Value
	}

	for _, s := range dto.Semesters {
		sem := academic.Semester{
			Name:    string(s.Semester),
			Courses: make([]academic.Course, 0, len(s.Courses)),
		}
		for _, c := range s.Courses {
			code := strings.TrimSpace(string(c.Code))
			if code == "" {
				continue
			}
			sem.Courses = append(sem.Courses, academic.Course{
				Code:           code,
				Name:           strings.TrimSpace(string(c.Name)),
				Credit:         c.Credit.Value,
				CountInGPA:     c.CountInGPA.Or(true),
				CountInCredits: c.CountInCredits.Or(true),
				ExamFormat:     strings.TrimSpace(string(c.ExamFormat)),
				Category:       string(c.Category),
			})
		}
		cur.Semesters = append(cur.Semesters, sem)
	}
	return cur
}

// ResultsFromDTO converts the results map. Status is lower-cased; a grade
// that is not a number is dropped, the result itself is kept.
func (m *Mapper) ResultsFromDTO(dto map[string]map[string]ResultDTO) academic.Results {
	out := make(academic.Results, len(dto))
	for sem, courses := range dto {
		converted := make(map[string]academic.CourseResult, len(courses))
		for code, r := range courses {
			converted[code] = academic.CourseResult{
				Grade:  r.Grade.Ptr(),
				Status: academic.ParseResultStatus(string(r.Status)),
			}
		}
		out[sem] = converted
	}
	return out
}

// DeadlinesFromDTO converts deadline items. A missing status means upcoming.
func (m *Mapper) DeadlinesFromDTO(dtos []DeadlineDTO) []academic.Deadline {
	out := make([]academic.Deadline, 0, len(dtos))
	for _, d := range dtos {
		status := academic.DeadlineStatus(strings.ToLower(strings.TrimSpace(string(d.Status))))
		if status == "" {
			status = academic.DeadlineUpcoming
		}
		out = append(out, academic.Deadline{
			Title:      string(d.Title),
			CourseCode: string(d.CourseCode),
			IsExam:     d.IsExam.Or(false),
			Status:     status,
			StartAt:    string(d.StartAt),
			EndAt:      string(d.EndAt),
		})
	}
	return out
}

func scores(in map[string]ScoreDTO) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		if v.Valid {
			out[k] = v.Value
		}
	}
	return out
}
