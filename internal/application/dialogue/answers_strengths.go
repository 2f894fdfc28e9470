package dialogue

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ptit-hub/study-assistant/internal/domain/academic"
	"github.com/ptit-hub/study-assistant/pkg/textnorm"
)

// ══════════════════════════════════════════════════════════════════════════════
// STRENGTHS AND WEAKNESSES
// ══════════════════════════════════════════════════════════════════════════════

const (
	strongGrade = 8.0
	weakGrade   = 6.0
)

// skillGroup buckets courses by name.
type skillGroup string

const (
	groupArt        skillGroup = "art"
	groupPhysical   skillGroup = "physical"
	groupDiscipline skillGroup = "discipline"
	groupTechnical  skillGroup = "technical"
	groupOther      skillGroup = "other"
)

// groupKeywords is checked in order; phrases match as substrings, single
// short words as whole tokens.
var groupKeywords = []struct {
	group   skillGroup
	phrases []string
	tokens  []string
}{
	{groupArt, []string{"my thuat", "co so tao hinh", "thiet ke", "do hoa", "illustration", "fine art", "graphic", "drawing", "design"}, []string{"ve"}},
	{groupPhysical, []string{"giao duc the chat", "the chat", "physical education"}, []string{"gdtc"}},
	{groupDiscipline, []string{"giao duc quoc phong", "quoc phong", "defence education", "defense education", "military"}, []string{"gdqp"}},
	{groupTechnical, []string{"lap trinh", "co so du lieu", "cau truc du lieu", "toan cao cap", "toan roi rac", "tin hoc", "ky thuat",
		"programming", "database", "data structure", "calculus", "discrete math", "computer", "engineering", "algorithm"}, nil},
}

func classifyGroup(name string) skillGroup {
	norm := textnorm.Normalize(name)
	for _, g := range groupKeywords {
		if textnorm.ContainsAny(norm, g.phrases...) || textnorm.HasToken(norm, g.tokens...) {
			return g.group
		}
	}
	return groupOther
}

// gradedCourse is a GPA-eligible course with a numeric grade.
type gradedCourse struct {
	Code   string
	Name   string
	Credit float64
	Grade  float64
	Group  skillGroup
}

// gradedCourses collects GPA-eligible graded courses, one per code with the
// latest attempt, in semester order.
func gradedCourses(snap *academic.Snapshot) []gradedCourse {
	courses := snap.CurriculumOrEmpty().CourseByCode()

	var out []gradedCourse
	for _, e := range snap.Results.Latest() {
		course, ok := courses[e.Code]
		if !ok || !course.CountInGPA || !e.Result.HasGrade() {
			continue
		}
		name := course.Name
		if name == "" {
			name = e.Code
		}
		out = append(out, gradedCourse{
			Code:   e.Code,
			Name:   name,
			Credit: course.Credit,
			Grade:  *e.Result.Grade,
			Group:  classifyGroup(name),
		})
	}
	return out
}

func (e *Engine) answerStrengths(ctx context.Context, t *turn) string {
	snap := t.snapshot(ctx)
	if snap == nil {
		return "I couldn't fetch your results to analyse your strengths and weaknesses."
	}
	if snap.Results.IsEmpty() || snap.Curriculum == nil || snap.Curriculum.IsEmpty() {
		return "I don't have enough curriculum or grade data yet to analyse your strengths and weaknesses."
	}

	graded := gradedCourses(snap)
	if len(graded) == 0 {
		return "None of your GPA courses has a grade in the system yet, so I can't analyse strengths and weaknesses."
	}

	return strengthsReport(snap.Stats, graded)
}

// groupAverage is the credit-weighted average with every credit counted as
// at least 1.
type groupAverage struct {
	sum     float64
	weight  float64
	courses []gradedCourse
}

func (g *groupAverage) add(c gradedCourse) {
	w := math.Max(c.Credit, 1)
	g.sum += c.Grade * w
	g.weight += w
	g.courses = append(g.courses, c)
}

func (g *groupAverage) avg() (float64, bool) {
	if g == nil || g.weight <= 0 {
		return 0, false
	}
	return g.sum / g.weight, true
}

// strengthsReport is the rule-based analysis.
func strengthsReport(stats academic.Stats, graded []gradedCourse) string {
	var overall groupAverage
	groups := make(map[skillGroup]*groupAverage)
	for _, c := range graded {
		overall.add(c)
		g, ok := groups[c.Group]
		if !ok {
			g = &groupAverage{}
			groups[c.Group] = g
		}
		g.add(c)
	}
	avg10, _ := overall.avg()

	gpa4, ok := stats.LatestCumGPA4()
	if !ok {
		gpa4 = math.Round(avg10/2.5*100) / 100
	}

	var strong, weak []gradedCourse
	best := graded[0]
	for _, c := range graded {
		if c.Grade >= strongGrade {
			strong = append(strong, c)
		}
		if c.Grade < weakGrade {
			weak = append(weak, c)
		}
		if c.Grade > best.Grade {
			best = c
		}
	}
	sort.SliceStable(strong, func(i, j int) bool {
		if strong[i].Grade != strong[j].Grade {
			return strong[i].Grade > strong[j].Grade
		}
		return strong[i].Credit > strong[j].Credit
	})
	sort.SliceStable(weak, func(i, j int) bool {
		if weak[i].Grade != weak[j].Grade {
			return weak[i].Grade < weak[j].Grade
		}
		return weak[i].Credit > weak[j].Credit
	})
	strong = firstN(strong, 5)
	weak = firstN(weak, 5)

	artAvg, hasArt := groups[groupArt].avg()
	physicalAvg, hasPhysical := groups[groupPhysical].avg()
	disciplineAvg, hasDiscipline := groups[groupDiscipline].avg()
	technicalAvg, hasTechnical := groups[groupTechnical].avg()

	var lines []string
	add := func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}

	add("**Overall picture**")
	add("\nYour estimated cumulative GPA is about **%s / 4.0** (roughly %.1f/10 across your GPA courses).", fixed2(gpa4), avg10)

	add("\n**Skill groups**")
	explained := false
	if hasArt && artAvg >= avg10 {
		explained = true
		top := append([]gradedCourse(nil), groups[groupArt].courses...)
		sort.SliceStable(top, func(i, j int) bool {
			if top[i].Grade != top[j].Grade {
				return top[i].Grade > top[j].Grade
			}
			return top[i].Credit > top[j].Credit
		})
		examples := make([]string, 0, 2)
		for _, c := range firstN(top, 2) {
			examples = append(examples, fmt.Sprintf("%s (%s)", c.Name, c.Code))
		}
		add("- The **art and creative** group stands out (about %s on the 4-point scale), especially %s. "+
			"That points to a good eye for aesthetics and composition.",
			fixed2(academic.GradeToFourPoint(artAvg)), strings.Join(examples, ", "))
	}
	if (hasPhysical && physicalAvg >= avg10) || (hasDiscipline && disciplineAvg >= avg10) {
		explained = true
		add("- The **physical and discipline** courses show you keep a steady rhythm and train consistently.")
	}
	if hasTechnical {
		explained = true
		if technicalAvg >= avg10 {
			add("- Your **technical and logic** courses are in good shape (about %s on the 4-point scale), "+
				"which suggests solid analytical thinking.", fixed2(academic.GradeToFourPoint(technicalAvg)))
		} else {
			add("- Your **technical and logic** courses sit below your overall level (about %s on the 4-point scale). "+
				"Keep an eye on them if you go deeper into programming or engineering.", fixed2(academic.GradeToFourPoint(technicalAvg)))
		}
	}
	if !explained {
		add("- The data isn't varied enough to split by skill group yet, but overall your form is steady.")
	}

	add("\n**Standout courses**")
	if len(strong) > 0 {
		add("Your highest-scoring courses:")
		for _, c := range strong {
			add("- **%s (%s)** ~ **%s** (4-point), %d credits.", c.Name, c.Code, fixed2(academic.GradeToFourPoint(c.Grade)), int(c.Credit))
		}
		add("\nYour strongest course right now is **%s (%s)** at **%s** (4-point).",
			best.Name, best.Code, fixed2(academic.GradeToFourPoint(best.Grade)))
	} else {
		add("No course clearly passes the strong threshold (8.0) yet, but your scores are fairly even.")
	}

	add("\n**Areas to watch**")
	if len(weak) > 0 {
		add("A few courses are below 6.0; these deserve extra time:")
		for _, c := range weak {
			add("- %s (%s) ~ **%s** (4-point), %d credits.", c.Name, c.Code, fixed2(academic.GradeToFourPoint(c.Grade)), int(c.Credit))
		}
		add("Revisit the fundamentals, ask your lecturers and practise with small exercises.")
	} else {
		var notes []string
		if hasArt {
			for _, c := range groups[groupArt].courses {
				if c.Grade < artAvg {
					notes = append(notes, fmt.Sprintf("- **%s (%s)** is a little below your other art courses (%s vs a group average of ~%s, 4-point).",
						c.Name, c.Code, fixed2(academic.GradeToFourPoint(c.Grade)), fixed2(academic.GradeToFourPoint(artAvg))))
				}
			}
		}
		if len(notes) > 0 {
			add("No course is truly weak (below 6.0), but a few could be balanced out:")
			lines = append(lines, notes...)
		} else {
			add("No course looks weak; your scores are safe. Keep the rhythm and raise your own bar.")
		}
	}

	add("\n**Suggestions**")
	var suggestions []string
	if hasArt && (artAvg >= avg10 || artAvg >= strongGrade) {
		suggestions = append(suggestions,
			"You lean clearly toward **art and visual design**. Tracks like **graphic design, 3D, game art and UI/UX** fit your profile.",
			"To go further, practise **colour studies, basic anatomy and composition**, and study designers' portfolios.")
	}
	if hasPhysical || hasDiscipline {
		suggestions = append(suggestions,
			"Good physical and defence education results show **discipline and stamina**, a real asset on long multimedia projects.")
	}
	if len(suggestions) == 0 {
		suggestions = append(suggestions,
			"Your data mostly shows steady form. Try more major courses, technical or creative, to see which direction suits you.")
	}
	for _, s := range suggestions {
		add("- %s", s)
	}

	return strings.Join(lines, "\n")
}

func firstN(items []gradedCourse, n int) []gradedCourse {
	if len(items) > n {
		return items[:n]
	}
	return items
}
