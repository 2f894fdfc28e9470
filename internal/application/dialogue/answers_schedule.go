package dialogue

import (
	"context"
	"fmt"
	"strings"

	"github.com/ptit-hub/study-assistant/internal/domain/academic"
	"github.com/ptit-hub/study-assistant/pkg/pseudonym"
	"github.com/ptit-hub/study-assistant/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// DEADLINES
// ══════════════════════════════════════════════════════════════════════════════

func (e *Engine) answerDeadline(ctx context.Context, t *turn) string {
	snap := t.snapshot(ctx)
	if snap == nil {
		return e.deadlineTotals(ctx, t)
	}

	if course, ok := academic.ResolveCourse(t.text, snap.Curriculum); ok {
		return e.courseDeadlines(course, snap.Deadlines)
	}

	var pending []academic.Deadline
	for _, d := range snap.Deadlines {
		if !d.IsExam && d.Status.IsPending() {
			pending = append(pending, d)
		}
	}
	if len(pending) == 0 {
		return "You have no pending deadlines. Enjoy your studies!"
	}
	academic.SortDeadlinesByEnd(pending)

	var b strings.Builder
	fmt.Fprintf(&b, "You have **%d pending deadlines:**\n", len(pending))
	for _, d := range pending {
		due := "no due date"
		if s, ok := timeutil.FormatIn(d.EndAt, timeutil.FormatDateClock, e.location); ok {
			due = s
		}
		state := "upcoming"
		if d.Status == academic.DeadlineOngoing {
			state = "ongoing"
		}
		fmt.Fprintf(&b, "\n- **%s** - %s (%s)", titleOr(d.Title, "Untitled"), due, state)
	}
	return b.String()
}

// deadlineTotals answers from the deadlines endpoint when the full snapshot
// is unavailable.
func (e *Engine) deadlineTotals(ctx context.Context, t *turn) string {
	items, err := e.fetchDeadlines(ctx, t.userID)
	if err != nil {
		return "I couldn't fetch your deadlines from the records service right now."
	}
	if len(items) == 0 {
		return "You don't have any deadlines in the system yet."
	}

	completed := 0
	for _, d := range items {
		if d.Status == academic.DeadlineCompleted {
			completed++
		}
	}
	return fmt.Sprintf("You have **%d** deadlines in total: %d completed and %d remaining. "+
		"Open the Deadlines or Calendar page for details.", len(items), completed, len(items)-completed)
}

func (e *Engine) courseDeadlines(course academic.CourseRef, all []academic.Deadline) string {
	var items []academic.Deadline
	for _, d := range all {
		if !d.IsExam && strings.EqualFold(d.CourseCode, course.Code) {
			items = append(items, d)
		}
	}
	if len(items) == 0 {
		return fmt.Sprintf("I couldn't find any deadlines for **%s (%s)**.", course.Name, course.Code)
	}

	var pending, overdue, completed int
	for _, d := range items {
		switch {
		case d.Status.IsPending():
			pending++
		case d.Status == academic.DeadlineOverdue:
			overdue++
		case d.Status == academic.DeadlineCompleted:
			completed++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%s (%s)** has **%d** deadlines:\n", course.Name, course.Code, len(items))
	if pending > 0 {
		fmt.Fprintf(&b, "- **%d** pending.\n", pending)
	}
	if overdue > 0 {
		fmt.Fprintf(&b, "- **%d** overdue (finish them soon).\n", overdue)
	}
	if completed > 0 {
		fmt.Fprintf(&b, "- **%d** completed.\n", completed)
	}

	academic.SortDeadlinesByEnd(items)
	for _, d := range items {
		if d.Status.IsPending() {
			fmt.Fprintf(&b, "The nearest open deadline is **%s** (due %s).",
				titleOr(d.Title, "Untitled"), e.when(d.EndAt, timeutil.FormatClockDate))
			break
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// ══════════════════════════════════════════════════════════════════════════════
// EXAMS
// ══════════════════════════════════════════════════════════════════════════════

func (e *Engine) answerExamSchedule(ctx context.Context, t *turn) string {
	snap := t.snapshot(ctx)

	var all []academic.Deadline
	if snap != nil {
		all = snap.Deadlines
	} else {
		items, err := e.fetchDeadlines(ctx, t.userID)
		if err != nil {
			return "I couldn't fetch your exam schedule from the records service right now."
		}
		all = items
	}

	var exams []academic.Deadline
	for _, d := range all {
		if d.IsExam {
			exams = append(exams, d)
		}
	}
	if len(exams) == 0 {
		return "I don't see any exams stored in the system for you."
	}
	academic.SortDeadlinesByWhen(exams)

	var curriculum *academic.Curriculum
	if snap != nil {
		curriculum = snap.Curriculum
	}
	if course, ok := academic.ResolveCourse(t.text, curriculum); ok {
		return e.courseExams(course, exams)
	}

	var upcoming, past []academic.Deadline
	for _, d := range exams {
		switch {
		case d.Status.IsPending():
			upcoming = append(upcoming, d)
		case d.Status.IsPast():
			past = append(past, d)
		}
	}
	if len(upcoming) == 0 && len(past) == 0 {
		return "I don't see any exams stored in the system for you."
	}

	var b strings.Builder
	b.WriteString("Your **exam schedule** in the system:\n")
	if len(upcoming) > 0 {
		b.WriteString("- **Upcoming exams**:\n")
		if len(upcoming) > 5 {
			upcoming = upcoming[:5]
		}
		for _, d := range upcoming {
			fmt.Fprintf(&b, "  • %s - %s\n", titleOr(d.Title, "Exam"), e.when(d.When(), timeutil.FormatClockDate))
		}
	}
	if len(past) > 0 {
		b.WriteString("- **Recent past exams**:\n")
		if len(past) > 3 {
			past = past[len(past)-3:]
		}
		for _, d := range past {
			fmt.Fprintf(&b, "  • %s - %s\n", titleOr(d.Title, "Exam"), e.when(d.When(), timeutil.FormatClockDate))
		}
	}
	b.WriteString("Open the Calendar page to see every exam.")
	return b.String()
}

// courseExams expects exams sorted by When.
func (e *Engine) courseExams(course academic.CourseRef, exams []academic.Deadline) string {
	var mine []academic.Deadline
	for _, d := range exams {
		if strings.EqualFold(d.CourseCode, course.Code) {
			mine = append(mine, d)
		}
	}
	if len(mine) == 0 {
		return fmt.Sprintf("I couldn't find any exam stored for **%s (%s)**.", course.Name, course.Code)
	}

	var lines []string
	next := -1
	lastPast := -1
	for i, d := range mine {
		if next < 0 && d.Status.IsPending() {
			next = i
		}
		if d.Status.IsPast() {
			lastPast = i
		}
	}

	if next >= 0 {
		d := mine[next]
		lines = append(lines, fmt.Sprintf("The next exam for **%s (%s)** is **%s**, scheduled for **%s**.",
			course.Name, course.Code, titleOr(d.Title, "Final exam"), e.when(d.When(), timeutil.FormatClockDate)))
	} else {
		lines = append(lines, fmt.Sprintf("I don't see an upcoming exam for **%s (%s)**. You may have taken it already or it isn't scheduled yet.",
			course.Name, course.Code))
	}
	if lastPast >= 0 {
		d := mine[lastPast]
		lines = append(lines, fmt.Sprintf("The most recent past exam was at **%s** (%s).",
			e.when(d.When(), timeutil.FormatClockDate), d.Status))
	}
	return strings.Join(lines, "\n")
}

func (e *Engine) answerExamFormat(ctx context.Context, t *turn) string {
	var (
		label  string
		format string
	)
	if snap := t.snapshot(ctx); snap != nil {
		if course, ok := academic.ResolveCourse(t.text, snap.Curriculum); ok {
			label = fmt.Sprintf("**%s (%s)**", course.Name, course.Code)
			if c, found := snap.Curriculum.CourseByCode()[course.Code]; found {
				format = c.ExamFormat
			}
		}
	}

	prefix := "For the courses in your programme, the exam format"
	if label != "" {
		prefix = "The exam format of " + label
	}
	if format != "" {
		return fmt.Sprintf("%s according to the current curriculum is **%s**. "+
			"It can change by lecturer or semester, so still check the syllabus.", prefix, format)
	}
	return prefix + " is something I **have no exact data** on. Check the syllabus or ask your lecturer."
}

// ══════════════════════════════════════════════════════════════════════════════
// GREETING
// ══════════════════════════════════════════════════════════════════════════════

func (e *Engine) answerGreeting(ctx context.Context, t *turn) string {
	if name := e.userName(ctx, t); name != "" {
		return fmt.Sprintf("Hi %s! %s", name, msgGreetingTail)
	}
	return "Hi there! " + msgGreetingTail
}

// userName prefers the name endpoint and falls back to the snapshot.
func (e *Engine) userName(ctx context.Context, t *turn) string {
	if t.userID == "" || e.records == nil {
		return ""
	}
	name, err := e.records.FetchUserName(ctx, t.userID)
	if err != nil {
		e.logger.Debug("user name unavailable", "user", pseudonym.UserID(t.userID), "error", err)
	}
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	if snap := t.snapshot(ctx); snap != nil {
		return snap.User.Name
	}
	return ""
}

func (e *Engine) fetchDeadlines(ctx context.Context, userID string) ([]academic.Deadline, error) {
	if e.records == nil {
		return nil, errNoRecordsProvider
	}
	items, err := e.records.FetchDeadlines(ctx, userID)
	if err != nil {
		e.logger.Warn("deadlines unavailable", "user", pseudonym.UserID(userID), "error", err)
	}
	return items, err
}

func titleOr(title, fallback string) string {
	if strings.TrimSpace(title) == "" {
		return fallback
	}
	return title
}
