package dialogue

import (
	"strconv"

	"github.com/ptit-hub/study-assistant/pkg/timeutil"
)

// ProgramURL is the official page of the Multimedia Technology programme.
const ProgramURL = "https://daotao.ptit.edu.vn/chuong-trinh-dao-tao/nganh-cong-nghe-da-phuong-tien/"

const msgUnsupported = "Sorry, I can't answer that yet. I can help with:\n" +
	"- your GPA (overall, per semester, best semester)\n" +
	"- credits, failed courses and graduation outlook\n" +
	"- deadlines, exam schedule and exam format\n" +
	"- a specific course's grade and status\n" +
	"- strengths and weaknesses across your courses\n" +
	"- academic warning status and programme information"

const msgClarify = "Could you be a bit more specific? Do you want to ask about **GPA, credits, deadlines, a course or graduation**?\n" +
	"For example: \"What is my current GPA?\", \"Which courses do I still owe?\" or \"What is the exam format of Calculus 1?\""

const msgAbout = "I'm the Student Assistant. I read your academic records to answer questions about " +
	"GPA, credits, failed courses, deadlines, exams and your graduation outlook. " +
	"For anything else I give general study advice."

const msgGreetingTail = "I'm the Student Assistant. Do you want to ask about your GPA, deadlines, credits or graduation outlook?"

const msgProgramInfo = "The official Multimedia Technology curriculum is published at:\n" + ProgramURL + "\n" +
	"There you can find:\n" +
	"- programme overview and learning outcomes\n" +
	"- programme structure and course list by semester\n" +
	"- career paths after graduation\n" +
	"- tuition, admission requirements and enrolment procedure\n" +
	"Ask me about a specific course if you want its credits, grade or exam format."

const msgRecordsUnavailable = "Sorry, I couldn't reach the academic records service right now. Please try again in a moment."

const msgNoRecords = "I couldn't find your results or curriculum in the system yet, so I can't compute that."

// needUserMessages are returned when an intent needs records but the turn
// carries no user id.
var needUserMessages = map[Intent]string{
	IntentExamSchedule:    "I need your student ID to look up your exam schedule.",
	IntentAcademicWarning: "I need your student ID to check your academic warning status.",
	IntentGraduation:      "I need your student ID to estimate your graduation outlook.",
	IntentDeadline:        "I need your student ID to check your deadlines.",
	IntentDebtList:        "I need your student ID to check which courses you owe.",
	IntentCredits:         "I need your student ID to check your credits and failed courses.",
	IntentStrengths:       "I need your student ID to analyse your strengths and weaknesses.",
	IntentNonGPACourses:   "I need your student ID to list the courses that don't count toward GPA.",
	IntentSemesterGPA:     "I need your student ID to look up your semester GPA.",
	IntentBestSemester:    "I need your student ID to compare your semester GPAs.",
	IntentGPA:             "I need your student ID to look up your GPA and grades.",
	IntentCourse:          "I need your student ID to look up your course information.",
}

func needUserMessage(intent Intent) string {
	if msg, ok := needUserMessages[intent]; ok {
		return msg
	}
	return "I need your student ID to answer that."
}

// num renders a figure without trailing zeros: 3.1, 30, 2.75.
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// fixed2 renders a figure with two decimals.
func fixed2(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// when renders an ISO timestamp in the campus zone, "unknown time" when
// malformed.
func (e *Engine) when(raw, layout string) string {
	if s, ok := timeutil.FormatIn(raw, layout, e.location); ok {
		return s
	}
	return "unknown time"
}
