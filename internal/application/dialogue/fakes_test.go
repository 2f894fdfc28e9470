package dialogue

import (
	"context"
	"errors"
	"sync"

	"github.com/ptit-hub/study-assistant/internal/domain/academic"
	"github.com/ptit-hub/study-assistant/internal/domain/shared"
)

var errDown = shared.WrapError("records", "FetchContext", shared.ErrUnavailable, "request failed", errors.New("connection refused"))

func grade(v float64) *float64 { return &v }

// fixtureSnapshot is a small first-year record set.
func fixtureSnapshot() *academic.Snapshot {
	return &academic.Snapshot{
		User: academic.User{ID: "u1", Name: "Lan"},
		Curriculum: &academic.Curriculum{
			Name:            "Multimedia Technology",
			RequiredCredits: 150,
			Semesters: []academic.Semester{
				{Name: "Semester 1", Courses: []academic.Course{
					{Code: "BAS1203", Name: "Calculus 1", Credit: 3, CountInGPA: true, CountInCredits: true},
					{Code: "INT1154", Name: "Programming Fundamentals", Credit: 3, CountInGPA: true, CountInCredits: true,
						ExamFormat: "Practical exam on computer"},
					{Code: "BAS1106", Name: "Physical Education 1", Credit: 1},
				}},
				{Name: "Semester 2", Courses: []academic.Course{
					{Code: "BAS1204", Name: "Calculus 2", Credit: 3, CountInGPA: true, CountInCredits: true},
				}},
			},
		},
		Results: academic.Results{
			"HK1": {
				"BAS1203": {Grade: grade(8.5), Status: academic.StatusPassed},
				"INT1154": {Grade: grade(4.0), Status: academic.StatusFailed},
				"BAS1106": {Grade: grade(9.0), Status: academic.StatusPassed},
			},
			"HK2": {
				"BAS1204": {Grade: grade(7.0), Status: academic.StatusPassed},
			},
		},
		Stats: academic.Stats{
			SemGPA4: map[string]float64{"HK1": 2.5, "HK2": 3.1},
			CumGPA4: map[string]float64{"HK1": 2.5, "HK2": 2.8},
		},
		Deadlines: []academic.Deadline{
			{Title: "Lab 1", CourseCode: "INT1154", EndAt: "2025-01-10T10:00:00Z", Status: academic.DeadlineUpcoming},
			{Title: "Essay", CourseCode: "BAS1203", EndAt: "2024-12-01T10:00:00Z", Status: academic.DeadlineCompleted},
			{Title: "Final exam Calculus 2", CourseCode: "BAS1204", IsExam: true, StartAt: "2025-01-15T01:00:00Z", Status: academic.DeadlineUpcoming},
		},
	}
}

// fakeRecords serves one snapshot, or fails.
type fakeRecords struct {
	mu sync.Mutex

	snap      *academic.Snapshot
	name      string
	ctxErr    error
	dlErr     error
	nameErr   error
	panicMsg  string
	ctxCalls  int
	dlCalls   int
	nameCalls int
}

func (f *fakeRecords) FetchContext(_ context.Context, _ string) (*academic.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ctxCalls++
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.ctxErr != nil {
		return nil, f.ctxErr
	}
	return f.snap, nil
}

func (f *fakeRecords) FetchDeadlines(_ context.Context, _ string) ([]academic.Deadline, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dlCalls++
	if f.dlErr != nil {
		return nil, f.dlErr
	}
	if f.snap == nil {
		return nil, nil
	}
	return f.snap.Deadlines, nil
}

func (f *fakeRecords) FetchUserName(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nameCalls++
	return f.name, f.nameErr
}

func (f *fakeRecords) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ctxCalls + f.dlCalls + f.nameCalls
}

type prediction struct {
	label      string
	confidence float64
}

// fakeClassifier answers from a fixed table keyed by normalized text.
type fakeClassifier map[string]prediction

func (f fakeClassifier) Classify(text string) (string, float64, bool) {
	p, ok := f[text]
	return p.label, p.confidence, ok
}

// fakeQA records every call.
type fakeQA struct {
	mu      sync.Mutex
	answer  string
	err     error
	prompts []string
	inputs  []string
}

func (f *fakeQA) Ask(_ context.Context, message, systemPrompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, message)
	f.prompts = append(f.prompts, systemPrompt)
	return f.answer, f.err
}

func (f *fakeQA) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inputs)
}

// fakeGate disables the listed features for everyone.
type fakeGate map[string]bool

func (f fakeGate) IsEnabledFor(feature, _ string) bool {
	return !f[feature]
}

type fakeRecorder struct {
	mu    sync.Mutex
	turns []Turn
}

func (f *fakeRecorder) Record(_ context.Context, turn Turn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.turns = append(f.turns, turn)
}

func (f *fakeRecorder) last() Turn {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.turns[len(f.turns)-1]
}
