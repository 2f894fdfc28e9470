package academic

import (
	"math"
	"regexp"
	"sort"
	"strconv"
)

// fourPointBands maps inclusive lower bounds on the 10-point scale to 4-point values.
var fourPointBands = []struct {
	min    float64
	points float64
}{
	{8.95, 4.0},
	{8.45, 3.7},
	{7.95, 3.5},
	{6.95, 3.0},
	{6.45, 2.5},
	{5.45, 2.0},
	{4.95, 1.5},
	{3.95, 1.0},
}

// GradeToFourPoint converts a 10-point grade to the 4-point scale.
func GradeToFourPoint(grade float64) float64 {
	for _, b := range fourPointBands {
		if grade >= b.min {
			return b.points
		}
	}
	return 0.0
}

// round2 rounds half away from zero to two decimals.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ══════════════════════════════════════════════════════════════════════════════
// SEMESTER KEYS
// ══════════════════════════════════════════════════════════════════════════════

var firstInt = regexp.MustCompile(`\d+`)

// SemesterNumber returns the first integer embedded in key, or 0.
func SemesterNumber(key string) int {
	m := firstInt.FindString(key)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// lessSemester orders by embedded integer, then by string.
func lessSemester(a, b string) bool {
	na, nb := SemesterNumber(a), SemesterNumber(b)
	if na != nb {
		return na < nb
	}
	return a < b
}

// SortSemesterKeys sorts keys in place, earliest first.
func SortSemesterKeys(keys []string) {
	sort.Slice(keys, func(i, j int) bool {
		return lessSemester(keys[i], keys[j])
	})
}

// LatestSemesterKey returns the maximum key of m.
func LatestSemesterKey[V any](m map[string]V) (string, bool) {
	var (
		latest string
		found  bool
	)
	for k := range m {
		if !found || lessSemester(latest, k) {
			latest, found = k, true
		}
	}
	return latest, found
}

// FindSemesterKey returns the first key (in semester order) whose embedded
// integer equals number.
func FindSemesterKey[V any](m map[string]V, number int) (string, bool) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	SortSemesterKeys(keys)
	for _, k := range keys {
		if SemesterNumber(k) == number {
			return k, true
		}
	}
	return "", false
}

// BestSemesters returns the highest value in m and every key reaching it,
// in semester order.
func BestSemesters(m map[string]float64) (float64, []string) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	SortSemesterKeys(keys)

	best := math.Inf(-1)
	var winners []string
	for _, k := range keys {
		v := m[k]
		switch {
		case v > best:
			best = v
			winners = []string{k}
		case v == best:
			winners = append(winners, k)
		}
	}
	if len(winners) == 0 {
		return 0, nil
	}
	return best, winners
}
