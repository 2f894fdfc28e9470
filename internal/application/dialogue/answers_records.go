package dialogue

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ptit-hub/study-assistant/internal/domain/academic"
)

// ══════════════════════════════════════════════════════════════════════════════
// GPA
// ══════════════════════════════════════════════════════════════════════════════

func (e *Engine) answerGPA(ctx context.Context, t *turn) string {
	snap := t.snapshot(ctx)
	if snap == nil {
		return msgRecordsUnavailable
	}

	if course, ok := academic.ResolveCourse(t.text, snap.Curriculum); ok {
		result, found := snap.Results.Lookup(course.Code)
		if !found || !result.HasGrade() {
			return fmt.Sprintf("I couldn't find a grade for **%s (%s)**. It may not be graded yet or not entered in the system.",
				course.Name, course.Code)
		}
		return courseGradeLine(course, result)
	}

	if gpa4, ok := snap.Stats.LatestCumGPA4(); ok {
		return fmt.Sprintf("Your current cumulative GPA is about **%s / 4.0**. Keep it up!", num(gpa4))
	}

	cs, err := academic.ComputeStats(snap.Results, snap.Curriculum)
	if err != nil {
		return msgNoRecords
	}
	return fmt.Sprintf("Your current cumulative GPA is about **%s** (10-point scale). Keep it up!", num(cs.GPA10))
}

// courseGradeLine renders a graded result on the 4-point scale.
func courseGradeLine(course academic.CourseRef, result academic.CourseResult) string {
	grade4 := fixed2(academic.GradeToFourPoint(*result.Grade))
	switch result.Status {
	case academic.StatusPassed:
		return fmt.Sprintf("Your grade for **%s (%s)** is **%s** (4-point scale), status: **passed**.", course.Name, course.Code, grade4)
	case academic.StatusFailed:
		return fmt.Sprintf("Your grade for **%s (%s)** is **%s** (4-point scale), status: **failed**.", course.Name, course.Code, grade4)
	default:
		status := string(result.Status)
		if status == "" {
			status = "unknown"
		}
		return fmt.Sprintf("You have **%s** (4-point scale) for **%s (%s)** (status: %s).", grade4, course.Name, course.Code, status)
	}
}

var firstNumber = regexp.MustCompile(`\d+`)

func (e *Engine) answerSemesterGPA(ctx context.Context, t *turn) string {
	snap := t.snapshot(ctx)
	if snap == nil {
		return msgRecordsUnavailable
	}
	if len(snap.Stats.SemGPA4) == 0 {
		return "There is no per-semester GPA data for you yet."
	}

	raw := firstNumber.FindString(t.text)
	if raw == "" {
		return "Which semester do you mean? For example: semester 1, HK2."
	}
	n, _ := strconv.Atoi(raw)

	key, ok := academic.FindSemesterKey(snap.Stats.SemGPA4, n)
	if !ok {
		return fmt.Sprintf("I couldn't find GPA data for semester %d.", n)
	}
	return fmt.Sprintf("Your GPA for **semester %d** is about **%s / 4.0**.", n, num(snap.Stats.SemGPA4[key]))
}

func (e *Engine) answerBestSemester(ctx context.Context, t *turn) string {
	snap := t.snapshot(ctx)
	if snap == nil {
		return msgRecordsUnavailable
	}

	best, keys := academic.BestSemesters(snap.Stats.SemGPA4)
	if len(keys) == 0 {
		return "There is no per-semester GPA data to compare yet."
	}

	labels := make([]string, len(keys))
	for i, k := range keys {
		labels[i] = fmt.Sprintf("HK%d", academic.SemesterNumber(k))
	}
	if len(labels) == 1 {
		return fmt.Sprintf("Your best semester is **%s**, at about **%s / 4.0**.", labels[0], num(best))
	}
	return fmt.Sprintf("Your best semesters are **%s**, each at about **%s / 4.0**.", strings.Join(labels, ", "), num(best))
}

// ══════════════════════════════════════════════════════════════════════════════
// CREDITS AND DEBT
// ══════════════════════════════════════════════════════════════════════════════

func (e *Engine) answerDebtList(ctx context.Context, t *turn) string {
	cs, reply, ok := t.computed(ctx)
	if !ok {
		return reply
	}
	if len(cs.DebtCourses) == 0 {
		return "You **don't owe any courses**. Congratulations!"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You owe **%d** courses:\n", len(cs.DebtCourses))
	for _, d := range cs.DebtCourses {
		fmt.Fprintf(&b, "\n- **%s (%s)** - %s (4-point), %s credits",
			d.Name, d.Code, fixed2(academic.GradeToFourPoint(d.Grade)), num(d.Credit))
	}
	return b.String()
}

func (e *Engine) answerCredits(ctx context.Context, t *turn) string {
	cs, reply, ok := t.computed(ctx)
	if !ok {
		return reply
	}
	if cs.RequiredCredits == 0 {
		return "I couldn't find the total required credits for your programme."
	}

	if n := len(cs.DebtCourses); n > 0 {
		shown := cs.DebtCourses
		if len(shown) > 3 {
			shown = shown[:3]
		}
		parts := make([]string, len(shown))
		for i, d := range shown {
			parts[i] = fmt.Sprintf("%s (%sC, %s)", d.Name, num(d.Credit), fixed2(academic.GradeToFourPoint(d.Grade)))
		}
		list := strings.Join(parts, ", ")
		if n > 3 {
			list += fmt.Sprintf(" and %d more", n-3)
		}
		return fmt.Sprintf("You have earned **%s/%s** of the required credits.\n"+
			"You currently owe **%d** courses, **%s** credits in total.\n"+
			"Courses to retake: %s (4-point).\n"+
			"Plan your retakes so you stay on track to graduate!",
			num(cs.TotalCreditsPassed), num(cs.RequiredCredits), n, num(cs.DebtCredits()), list)
	}

	remaining := cs.RemainingCredits()
	if remaining <= 0 {
		return fmt.Sprintf("Great! You have earned all **%s** required credits (or more). "+
			"You are ready to graduate as long as your GPA meets the requirement.", num(cs.RequiredCredits))
	}
	return fmt.Sprintf("You have earned **%s/%s** credits. You still need **%s** more.",
		num(cs.TotalCreditsPassed), num(cs.RequiredCredits), num(remaining))
}

func (e *Engine) answerNonGPACourses(ctx context.Context, t *turn) string {
	snap := t.snapshot(ctx)
	if snap == nil {
		return msgRecordsUnavailable
	}

	type item struct {
		course   academic.Course
		semester string
	}
	var items []item
	for _, sem := range snap.CurriculumOrEmpty().Semesters {
		for _, c := range sem.Courses {
			if !c.CountInGPA {
				items = append(items, item{course: c, semester: sem.Name})
			}
		}
	}
	if len(items) == 0 {
		return "No course in your curriculum is marked as **not counting toward GPA**. " +
			"Either every course counts or the curriculum data is incomplete."
	}

	var b strings.Builder
	b.WriteString("According to your curriculum, these courses **don't count toward GPA**:")
	for i, it := range items {
		if i == 10 {
			fmt.Fprintf(&b, "\n... and **%d** more.", len(items)-10)
			break
		}
		fmt.Fprintf(&b, "\n- %s - %s (%s credits, %s)", it.course.Code, it.course.Name, num(it.course.Credit), it.semester)
	}
	return b.String()
}

// ══════════════════════════════════════════════════════════════════════════════
// GRADUATION AND WARNING
// ══════════════════════════════════════════════════════════════════════════════

func (e *Engine) answerGraduation(ctx context.Context, t *turn) string {
	cs, reply, ok := t.computed(ctx)
	if !ok {
		return reply
	}
	if cs.RequiredCredits == 0 {
		return "I can't estimate that: the total required credits are missing."
	}

	a := academic.AssessGraduation(cs, academic.ResolveGPA4(t.snap.Stats, cs.GPA10))

	creditsLine := "you have earned **all** required credits"
	if a.RemainingCredits > 0 {
		creditsLine = fmt.Sprintf("you still need **%s** more credits", num(a.RemainingCredits))
	}

	gpaLine := fmt.Sprintf("your cumulative GPA is **%s** (4-point), which **meets** the minimum **%s**.",
		fixed2(a.GPA4), fixed2(academic.MinGraduationGPA4))
	if !a.MeetsGPA {
		gpaLine = fmt.Sprintf("your cumulative GPA is **%s** (4-point), **below** the minimum **%s**.",
			fixed2(a.GPA4), fixed2(academic.MinGraduationGPA4))
	}

	debtLine := "you **don't** owe any course."
	if a.DebtCount > 0 {
		debtLine = fmt.Sprintf("you owe **%d** courses (%s credits).", a.DebtCount, num(a.DebtCredits))
	}

	var verdict string
	switch a.Tier {
	case academic.GraduationHigh:
		verdict = "**On-time graduation: HIGH.** You have enough credits, a sufficient GPA and no failed courses. Keep it up!"
	case academic.GraduationLow:
		verdict = fmt.Sprintf("**On-time graduation: LOW.** You are around semester %d and still need **%s** credits "+
			"or have failed courses. You will likely need a summer term or an extra semester.",
			int(a.EstimatedSemesters)+1, num(a.RemainingCredits))
	default:
		verdict = fmt.Sprintf("**On-time graduation: MEDIUM.** You still need **%s** credits and owe %d courses (%s credits). "+
			"If you retake the failed courses and keep your grades up, you can still graduate on time.",
			num(a.RemainingCredits), a.DebtCount, num(a.DebtCredits))
	}

	return fmt.Sprintf("**Graduation outlook (based on current data):**\n\n"+
		"1. **Credits:** %s/%s (%s)\n"+
		"2. **GPA:** %s\n"+
		"3. **Failed courses:** %s\n\n"+
		"%s",
		num(a.PassedCredits), num(a.RequiredCredits), creditsLine, gpaLine, debtLine, verdict)
}

func (e *Engine) answerWarning(ctx context.Context, t *turn) string {
	snap := t.snapshot(ctx)
	if snap == nil {
		return msgRecordsUnavailable
	}

	a, err := academic.AssessAcademicWarning(snap.Stats)
	if err != nil {
		return "There isn't enough grade data yet to assess academic warning status."
	}

	if a.Level == 0 {
		return "Against the academic warning thresholds (semester GPA below 1.0, or cumulative GPA below " +
			"1.20/1.40/1.60/1.80 by study year), your current results are **not in the warning zone**. " +
			"Keep it up or keep improving."
	}

	var reasons []string
	for _, r := range a.Reasons {
		switch r.Kind {
		case academic.ReasonSemesterGPA:
			reasons = append(reasons, fmt.Sprintf("- Your latest semester (HK%d) GPA is about %s/4.0, below %s.",
				a.SemesterIndex, num(r.Value), num(r.Threshold)))
		case academic.ReasonCumulativeGPA:
			reasons = append(reasons, fmt.Sprintf("- Your cumulative GPA is about %s/4.0, below the %s/4.0 threshold for year %d.",
				num(r.Value), num(r.Threshold), a.Year))
		}
	}

	return fmt.Sprintf("**Academic warning assessment:**\n%s\n\n"+
		"With these results you are **at risk of a level %d academic warning**.\n"+
		"If results do not improve in the following semesters the warning can escalate to level 2 and then level 3, "+
		"which may lead to dismissal. Talk to your academic advisor or the training office to confirm your exact status.",
		strings.Join(reasons, "\n"), a.Level)
}

// ══════════════════════════════════════════════════════════════════════════════
// COURSE
// ══════════════════════════════════════════════════════════════════════════════

func (e *Engine) answerCourse(ctx context.Context, t *turn) string {
	snap := t.snapshot(ctx)
	if snap == nil {
		return msgRecordsUnavailable
	}

	course, ok := academic.ResolveCourse(t.text, snap.Curriculum)
	if !ok {
		return "Which course do you mean? Please give its name or code, for example \"Calculus 1\" or \"BAS1203\"."
	}

	result, found := snap.Results.Lookup(course.Code)
	if !found || !result.HasGrade() {
		return fmt.Sprintf("**%s (%s)** has no grade yet. It may be in progress or not entered in the system.",
			course.Name, course.Code)
	}
	return courseGradeLine(course, result)
}

// computed fetches the snapshot and derives stats. On failure it returns the
// reply to send instead.
func (t *turn) computed(ctx context.Context) (academic.ComputedStats, string, bool) {
	snap := t.snapshot(ctx)
	if snap == nil {
		return academic.ComputedStats{}, msgRecordsUnavailable, false
	}
	cs, err := academic.ComputeStats(snap.Results, snap.Curriculum)
	if err != nil {
		return academic.ComputedStats{}, msgNoRecords, false
	}
	return cs, "", true
}
