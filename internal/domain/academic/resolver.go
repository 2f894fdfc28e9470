package academic

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ptit-hub/study-assistant/pkg/textnorm"
)

// CourseRef is a course resolved from a question.
type CourseRef struct {
	Code string
	Name string
}

var (
	anyInt      = regexp.MustCompile(`\d+`)
	trailingInt = regexp.MustCompile(`(\d+)$`)
)

// ResolveCourse finds the course mentioned in an already-normalized question.
//
// Candidates are checked in curriculum order:
//  1. the course code appears in the question: returned at once;
//  2. the full normalized name appears and its trailing number does not
//     contradict the last number in the question: returned at once; on a
//     contradiction the course is skipped;
//  3. the name without its trailing number appears and numbers do not
//     contradict: kept as a candidate, the last one wins.
//
// Users often drop the series number ("calculus" for "Calculus 1") while
// "calculus 2" must never resolve to "Calculus 1".
func ResolveCourse(question string, curriculum *Curriculum) (CourseRef, bool) {
	if curriculum == nil || question == "" {
		return CourseRef{}, false
	}

	questionNum, hasQuestionNum := lastInt(question)

	var (
		best  CourseRef
		found bool
	)
	for _, course := range curriculum.Courses() {
		if course.Code == "" && course.Name == "" {
			continue
		}

		if course.Code != "" && strings.Contains(question, strings.ToLower(course.Code)) {
			return refOf(course), true
		}
		if course.Name == "" {
			continue
		}

		name := textnorm.Normalize(course.Name)
		if name == "" {
			continue
		}
		courseNum, base, hasCourseNum := splitTrailingInt(name)
		compatible := !hasQuestionNum || !hasCourseNum || questionNum == courseNum

		if strings.Contains(question, name) {
			if compatible {
				return refOf(course), true
			}
			continue
		}

		if hasCourseNum && base != "" && strings.Contains(question, base) && compatible {
			best, found = refOf(course), true
		}
	}
	return best, found
}

func refOf(c Course) CourseRef {
	name := c.Name
	if name == "" {
		name = c.Code
	}
	return CourseRef{Code: c.Code, Name: name}
}

// lastInt returns the last integer in s.
func lastInt(s string) (int, bool) {
	all := anyInt.FindAllString(s, -1)
	if len(all) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(all[len(all)-1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// splitTrailingInt splits "toan cao cap 2" into 2 and "toan cao cap".
func splitTrailingInt(name string) (int, string, bool) {
	loc := trailingInt.FindStringSubmatchIndex(name)
	if loc == nil {
		return 0, "", false
	}
	n, err := strconv.Atoi(name[loc[2]:loc[3]])
	if err != nil {
		return 0, "", false
	}
	return n, strings.TrimRight(name[:loc[0]], " \t"), true
}
