package dialogue

import (
	"regexp"
	"strings"

	"github.com/ptit-hub/study-assistant/pkg/textnorm"
)

// ══════════════════════════════════════════════════════════════════════════════
// RULE TABLE
// Ordered keyword predicates over normalized text. The first match wins, so
// the order below is the routing priority.
// ══════════════════════════════════════════════════════════════════════════════

// Rule pairs a predicate with the intent it selects.
type Rule struct {
	Name   string
	Intent Intent
	Match  func(text string) bool
}

// DefaultRules returns the routing table in priority order.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "program-info", Intent: IntentProgramInfo, Match: matchProgramInfo},
		{Name: "exam-schedule", Intent: IntentExamSchedule, Match: matchExamSchedule},
		{Name: "exam-format", Intent: IntentExamFormat, Match: matchExamFormat},
		{Name: "academic-warning", Intent: IntentAcademicWarning, Match: matchWarning},
		{Name: "graduation", Intent: IntentGraduation, Match: matchGraduation},
		{Name: "deadline", Intent: IntentDeadline, Match: matchDeadline},
		{Name: "debt-list", Intent: IntentDebtList, Match: matchDebtList},
		{Name: "credits", Intent: IntentCredits, Match: matchCredits},
		{Name: "strengths", Intent: IntentStrengths, Match: matchStrengths},
		{Name: "non-gpa-courses", Intent: IntentNonGPACourses, Match: matchNonGPA},
		{Name: "semester-gpa", Intent: IntentSemesterGPA, Match: matchSemesterGPA},
		{Name: "best-semester", Intent: IntentBestSemester, Match: matchBestSemester},
		{Name: "gpa", Intent: IntentGPA, Match: matchGPA},
		{Name: "course", Intent: IntentCourse, Match: matchCourse},
	}
}

// MatchRule returns the first rule matching text.
func MatchRule(rules []Rule, text string) (Rule, bool) {
	for _, r := range rules {
		if r.Match(text) {
			return r, true
		}
	}
	return Rule{}, false
}

var (
	programPhrases = []string{
		"chuong trinh dao tao", "quy trinh dao tao", "cong nghe da phuong tien",
		"tong quan nganh", "chuan dau ra", "cau truc chuong trinh", "nghe nghiep",
		"hoc phi", "dieu kien tuyen sinh", "quy trinh nhap hoc", "tai lieu dao tao",
		"training program", "study program", "program structure", "learning outcomes",
		"tuition", "admission", "multimedia technology",
	}

	examWhenPhrases = []string{"lich", "ngay thi", "ngay nao", "bao gio", "gio thi", "khi nao"}

	examFormatPhrases = []string{
		"hinh thuc thi", "thi cuoi ky", "thi cuoi ki", "thi cuoi", "thi the nao",
		"thi nhu the nao", "thi kieu gi", "thi mon nay ra sao", "thi mon",
		"bai tap lon hay thi", "exam format", "exam type", "how is the exam",
		"format of the exam", "final exam",
	}

	warningPhrases = []string{
		"canh bao hoc tap", "muc canh bao", "academic warning", "academic probation", "probation",
	}

	graduationPhrases = []string{"ra truong", "tot nghiep", "graduat"}

	deadlinePhrases = []string{"deadline", "han nop", "nop bai", "due date", "assignment due", "homework"}

	debtPhrases = []string{
		"no mon nao", "no mon gi", "dang no mon", "mon nao no", "mon gi no",
		"danh sach mon no", "mon hoc lai", "failed courses", "courses i failed",
		"failed subjects", "retake", "do i owe", "i still owe",
	}

	creditPhrases = []string{
		"no mon", "thieu tin chi", "tin chi", "bao nhieu tin",
		"tich luy duoc bao tin", "tich luy duoc bao nhieu tin", "tich luy bao nhieu tin",
	}

	strengthPhrases = []string{
		"diem manh", "diem yeu", "manh yeu", "mon nao manh", "mon nao yeu",
		"mon nao tot", "mon nao kem", "hoc luc manh", "hoc luc yeu",
		"phan tich hoc luc", "phan tich diem manh", "phan tich diem yeu",
		"strength", "weakness", "strong subjects", "weak subjects",
	}

	notCountedPhrases = []string{
		"khong tinh", "ko tinh", "khong duoc tinh", "not count", "don't count",
		"dont count", "excluded", "not included",
	}

	bestPhrases     = []string{"cao nhat", "tot nhat", "best", "highest"}
	semesterPhrases = []string{"hoc ky", "hoc ki", "hk", "semester"}

	semesterNumber = regexp.MustCompile(`\b(hk|hoc ky|hoc ki|semester|sem)\s*\d+`)

	continuationPhrases = []string{
		"con gi nua", "con gi", "them gi", "nua khong", "nua ko", "tiep tuc", "tieptuc", "nua k",
		"what else", "anything else", "tell me more", "go on", "continue",
	}
)

func matchProgramInfo(text string) bool {
	if textnorm.ContainsAny(text, programPhrases...) {
		return true
	}
	return strings.Contains(text, "dao tao") && textnorm.ContainsAny(text, "chuong trinh", "quy trinh")
}

func matchExamSchedule(text string) bool {
	if textnorm.HasToken(text, "thi") && textnorm.ContainsAny(text, examWhenPhrases...) {
		return true
	}
	return textnorm.HasToken(text, "exam", "exams") &&
		textnorm.ContainsAny(text, "when", "schedule", "date", "what time")
}

func matchExamFormat(text string) bool {
	return textnorm.ContainsAny(text, examFormatPhrases...)
}

func matchWarning(text string) bool {
	return textnorm.ContainsAny(text, warningPhrases...)
}

func matchGraduation(text string) bool {
	return textnorm.ContainsAny(text, graduationPhrases...)
}

func matchDeadline(text string) bool {
	return textnorm.ContainsAny(text, deadlinePhrases...)
}

func matchDebtList(text string) bool {
	return textnorm.ContainsAny(text, debtPhrases...)
}

func matchCredits(text string) bool {
	return textnorm.ContainsAny(text, creditPhrases...) || textnorm.HasToken(text, "credit", "credits")
}

func matchStrengths(text string) bool {
	return textnorm.ContainsAny(text, strengthPhrases...)
}

func matchNonGPA(text string) bool {
	return strings.Contains(text, "gpa") && textnorm.ContainsAny(text, notCountedPhrases...)
}

func matchSemesterGPA(text string) bool {
	return textnorm.ContainsAny(text, "gpa", "diem", "average") && semesterNumber.MatchString(text)
}

func matchBestSemester(text string) bool {
	return textnorm.ContainsAny(text, bestPhrases...) && textnorm.ContainsAny(text, semesterPhrases...)
}

func matchGPA(text string) bool {
	return textnorm.ContainsAny(text, "gpa", "diem") || textnorm.HasToken(text, "grade", "grades", "score", "scores")
}

func matchCourse(text string) bool {
	return textnorm.HasToken(text, "mon", "course", "courses", "subject", "subjects") ||
		strings.Contains(text, "hoc gi")
}

// isContinuation reports a follow-up like "what else".
func isContinuation(text string) bool {
	return textnorm.ContainsAny(text, continuationPhrases...)
}

// ══════════════════════════════════════════════════════════════════════════════
// SMALL TALK
// ══════════════════════════════════════════════════════════════════════════════

var (
	shortAcks    = map[string]bool{"co": true, "ok": true, "oke": true, "okay": true, "dc": true, "duoc": true, "vang": true, "uh": true, "uhm": true, "uk": true, "yes": true, "yeah": true, "sure": true}
	aboutPhrases = []string{"ban la ai", "giup toi", "who are you", "help me", "what can you do"}
)

func isGreeting(text string) bool {
	return textnorm.HasToken(text, "chao", "hello", "hi", "hey") ||
		textnorm.ContainsAny(text, "good morning", "good afternoon", "good evening")
}

func isShortAck(text string) bool {
	return shortAcks[strings.TrimSpace(text)]
}

func isAbout(text string) bool {
	return textnorm.ContainsAny(text, aboutPhrases...)
}
