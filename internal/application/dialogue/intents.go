// Package dialogue routes one chat turn to an answer: it normalizes the
// question, picks an intent from the rule table, the classifier or the
// session, and renders the reply from the student's records.
package dialogue

// Intent is the resolved category of a question.
type Intent string

const (
	IntentNone            Intent = ""
	IntentProgramInfo     Intent = "program_info"
	IntentExamSchedule    Intent = "exam_schedule"
	IntentExamFormat      Intent = "exam_format"
	IntentAcademicWarning Intent = "academic_warning"
	IntentGraduation      Intent = "graduation"
	IntentDeadline        Intent = "deadline"
	IntentDebtList        Intent = "debt_list"
	IntentCredits         Intent = "credits"
	IntentStrengths       Intent = "strengths"
	IntentNonGPACourses   Intent = "non_gpa_courses"
	IntentSemesterGPA     Intent = "semester_gpa"
	IntentBestSemester    Intent = "best_semester"
	IntentGPA             Intent = "gpa"
	IntentCourse          Intent = "course"
)

// classifierLabels maps classifier output to intents. "other" and unknown
// labels map to nothing.
var classifierLabels = map[string]Intent{
	"deadline":   IntentDeadline,
	"gpa":        IntentGPA,
	"graduation": IntentGraduation,
	"credits":    IntentCredits,
	"course":     IntentCourse,
}

// IntentFromLabel maps a classifier label.
func IntentFromLabel(label string) (Intent, bool) {
	intent, ok := classifierLabels[label]
	return intent, ok
}

// NeedsUser reports whether answering requires a student identifier.
func (i Intent) NeedsUser() bool {
	switch i {
	case IntentNone, IntentProgramInfo, IntentExamFormat:
		return false
	default:
		return true
	}
}

// Source tells how the intent of a turn was found.
type Source string

const (
	SourceRule         Source = "rule"
	SourceClassifier   Source = "classifier"
	SourceContinuation Source = "continuation"
	SourceEntity       Source = "entity"
	SourceSmallTalk    Source = "small_talk"
	SourceLLM          Source = "llm"
	SourceUnsupported  Source = "unsupported"
)

// Route is the routing decision for one turn.
type Route struct {
	Intent     Intent
	Source     Source
	Rule       string
	Confidence float64
}
