package academic

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ptit-hub/study-assistant/internal/domain/shared"
)

func grade(v float64) *float64 { return &v }

func TestGradeToFourPoint(t *testing.T) {
	tests := []struct {
		grade float64
		want  float64
	}{
		{10.0, 4.0},
		{8.95, 4.0},
		{8.94999, 3.7},
		{8.45, 3.7},
		{8.0, 3.5},
		{7.95, 3.5},
		{7.5, 3.0},
		{6.5, 2.5},
		{6.0, 2.0},
		{5.0, 1.5},
		{4.0, 1.0},
		{3.94, 0.0},
		{0.0, 0.0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, GradeToFourPoint(tt.grade), "grade %v", tt.grade)
	}
}

func TestSemesterOrdering(t *testing.T) {
	keys := []string{"HK10", "HK2", "summer", "HK1", "S2"}
	SortSemesterKeys(keys)
	assert.Equal(t, []string{"summer", "HK1", "HK2", "S2", "HK10"}, keys)

	latest, ok := LatestSemesterKey(map[string]float64{"S1": 2.5, "S2": 3.1, "S10": 1.0})
	require.True(t, ok)
	assert.Equal(t, "S10", latest)

	_, ok = LatestSemesterKey(map[string]float64{})
	assert.False(t, ok)

	key, ok := FindSemesterKey(map[string]float64{"HK1": 3, "HK2": 2}, 2)
	require.True(t, ok)
	assert.Equal(t, "HK2", key)
}

func TestBestSemesters(t *testing.T) {
	best, keys := BestSemesters(map[string]float64{"HK1": 3.2, "HK3": 3.5, "HK2": 3.5})
	assert.Equal(t, 3.5, best)
	assert.Equal(t, []string{"HK2", "HK3"}, keys)

	_, keys = BestSemesters(nil)
	assert.Empty(t, keys)
}

func sampleCurriculum() *Curriculum {
	return &Curriculum{
		Name: "Multimedia Technology",
		Semesters: []Semester{
			{Name: "HK1", Courses: []Course{
				{Code: "MAT1", Name: "Calculus 1", Credit: 3, CountInGPA: true, CountInCredits: true},
				{Code: "PE1", Name: "Physical Education 1", Credit: 2, CountInGPA: false, CountInCredits: true},
			}},
			{Name: "HK2", Courses: []Course{
				{Code: "MAT2", Name: "Calculus 2", Credit: 3, CountInGPA: true, CountInCredits: true},
				{Code: "DB", Name: "Databases", Credit: 4, CountInGPA: true, CountInCredits: true},
			}},
		},
	}
}

func TestComputeStats_GPAOnlyFromEligibleCourses(t *testing.T) {
	results := Results{
		"HK1": {
			"MAT1": {Grade: grade(8.0), Status: StatusPassed},
			"PE1":  {Grade: grade(2.0), Status: StatusFailed},
		},
	}

	stats, err := ComputeStats(results, sampleCurriculum())
	require.NoError(t, err)

	assert.Equal(t, 8.0, stats.GPA10)
	assert.Equal(t, 3.0, stats.TotalCreditsGPA)
	assert.Equal(t, 3.0, stats.TotalCreditsPassed)
	assert.Equal(t, 12.0, stats.RequiredCredits)
	assert.Equal(t, 10.0, stats.RequiredCreditsGPA)
	require.Len(t, stats.DebtCourses, 1)
	assert.Equal(t, "PE1", stats.DebtCourses[0].Code)
}

func TestComputeStats_DebtClassification(t *testing.T) {
	results := Results{
		"HK2": {
			"MAT2": {Grade: grade(3.0), Status: StatusFailed},
			"DB":   {Grade: grade(7.0), Status: ""},
		},
	}

	stats, err := ComputeStats(results, sampleCurriculum())
	require.NoError(t, err)

	require.Len(t, stats.DebtCourses, 1)
	assert.Equal(t, DebtCourse{Code: "MAT2", Name: "Calculus 2", Credit: 3, Grade: 3.0}, stats.DebtCourses[0])
	assert.Equal(t, 0.0, stats.TotalCreditsPassed)
	assert.Equal(t, 3.0, stats.DebtCredits())
}

func TestComputeStats_WeightedAverageRounded(t *testing.T) {
	results := Results{
		"HK1": {"MAT1": {Grade: grade(7.0), Status: StatusPassed}},
		"HK2": {
			"DB":   {Grade: grade(8.5), Status: StatusPassed},
			"MAT2": {Status: StatusInProgress},
		},
	}

	stats, err := ComputeStats(results, sampleCurriculum())
	require.NoError(t, err)

	// (7*3 + 8.5*4) / 7 = 7.857...
	assert.Equal(t, 7.86, stats.GPA10)
	assert.Equal(t, 7.0, stats.TotalCreditsGPA)
	assert.Empty(t, stats.DebtCourses)
}

func TestComputeStats_ZeroEligibleCredits(t *testing.T) {
	results := Results{"HK1": {"PE1": {Grade: grade(9.0), Status: StatusPassed}}}

	stats, err := ComputeStats(results, sampleCurriculum())
	require.NoError(t, err)
	assert.Equal(t, 0.0, stats.GPA10)
	assert.Equal(t, 2.0, stats.TotalCreditsPassed)
}

func TestComputeStats_UnknownCodesIgnored(t *testing.T) {
	results := Results{"HK1": {"XYZ": {Grade: grade(1.0), Status: StatusFailed}}}

	stats, err := ComputeStats(results, sampleCurriculum())
	require.NoError(t, err)
	assert.Empty(t, stats.DebtCourses)
	assert.Equal(t, 0.0, stats.TotalCreditsGPA)
}

func TestComputeStats_MissingData(t *testing.T) {
	_, err := ComputeStats(nil, sampleCurriculum())
	assert.True(t, errors.Is(err, shared.ErrDataIncomplete))

	_, err = ComputeStats(Results{"HK1": {"MAT1": {Status: StatusPassed}}}, nil)
	assert.True(t, shared.IsDataIncomplete(err))
}

func TestComputeStats_RetakeCountsLatestAttempt(t *testing.T) {
	results := Results{
		"HK1": {"MAT1": {Grade: grade(4.0), Status: StatusFailed}},
		"HK2": {"MAT1": {Grade: grade(8.0), Status: StatusPassed}},
	}

	stats, err := ComputeStats(results, sampleCurriculum())
	require.NoError(t, err)

	assert.Equal(t, 8.0, stats.GPA10)
	assert.Equal(t, 3.0, stats.TotalCreditsGPA)
	assert.Equal(t, 3.0, stats.TotalCreditsPassed)
	assert.Empty(t, stats.DebtCourses)
}

func TestResults_LatestKeepsOneEntryPerCode(t *testing.T) {
	results := Results{
		"HK1": {
			"MAT1": {Grade: grade(3.0), Status: StatusFailed},
			"DB":   {Grade: grade(7.0), Status: StatusPassed},
		},
		"HK10": {"MAT1": {Grade: grade(6.0), Status: StatusPassed}},
	}

	latest := results.Latest()
	require.Len(t, latest, 2)
	assert.Equal(t, "DB", latest[0].Code)
	assert.Equal(t, ResultEntry{Semester: "HK10", Code: "MAT1", Result: results["HK10"]["MAT1"]}, latest[1])
}

func TestResultsLookup_LatestAttemptWins(t *testing.T) {
	results := Results{
		"HK1": {"MAT1": {Grade: grade(3.0), Status: StatusFailed}},
		"HK3": {"MAT1": {Grade: grade(7.0), Status: StatusPassed}},
	}

	r, ok := results.Lookup("MAT1")
	require.True(t, ok)
	assert.Equal(t, StatusPassed, r.Status)

	_, ok = results.Lookup("NOPE")
	assert.False(t, ok)
}

func TestClassifyGraduation(t *testing.T) {
	tests := []struct {
		name        string
		remaining   float64
		estimated   float64
		gpa4        float64
		debtCredits float64
		debtCount   int
		want        GraduationTier
	}{
		{"done, good gpa, no debt", 0, 8, 3.0, 0, 0, GraduationHigh},
		{"over-complete", -4, 9, 2.0, 0, 0, GraduationHigh},
		{"late with low gpa", 30, 8, 1.5, 0, 0, GraduationLow},
		{"late with debt", 10, 8.5, 3.0, 3, 1, GraduationLow},
		{"early with low gpa", 60, 4, 1.5, 0, 0, GraduationMedium},
		{"late but healthy", 10, 8, 3.2, 0, 0, GraduationMedium},
		{"done but in debt", 0, 8, 3.0, 3, 1, GraduationMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyGraduation(tt.remaining, tt.estimated, tt.gpa4, tt.debtCredits, tt.debtCount)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAssessGraduation(t *testing.T) {
	cs := ComputedStats{
		TotalCreditsPassed: 90,
		TotalCreditsGPA:    120,
		RequiredCredits:    120,
	}

	a := AssessGraduation(cs, 1.5)
	assert.Equal(t, GraduationLow, a.Tier)
	assert.Equal(t, 30.0, a.RemainingCredits)
	assert.Equal(t, 8.0, a.EstimatedSemesters)
	assert.False(t, a.MeetsGPA)
}

func TestResolveGPA4(t *testing.T) {
	stats := Stats{CumGPA4: map[string]float64{"S1": 2.5, "S2": 3.1}}
	assert.Equal(t, 3.1, ResolveGPA4(stats, 5.0))
	assert.Equal(t, 3.0, ResolveGPA4(Stats{}, 7.2))
}

func TestStudyYearAndThreshold(t *testing.T) {
	assert.Equal(t, 1, StudyYear(0))
	assert.Equal(t, 1, StudyYear(1))
	assert.Equal(t, 1, StudyYear(2))
	assert.Equal(t, 2, StudyYear(3))
	assert.Equal(t, 4, StudyYear(8))

	assert.Equal(t, 1.20, CumulativeThreshold(1))
	assert.Equal(t, 1.40, CumulativeThreshold(2))
	assert.Equal(t, 1.60, CumulativeThreshold(3))
	assert.Equal(t, 1.80, CumulativeThreshold(4))
	assert.Equal(t, 1.80, CumulativeThreshold(6))
}

func TestAssessAcademicWarning(t *testing.T) {
	t.Run("no data", func(t *testing.T) {
		_, err := AssessAcademicWarning(Stats{})
		assert.True(t, shared.IsDataIncomplete(err))
	})

	t.Run("healthy", func(t *testing.T) {
		a, err := AssessAcademicWarning(Stats{
			SemGPA4: map[string]float64{"HK1": 3.0, "HK2": 2.8},
			CumGPA4: map[string]float64{"HK1": 3.0, "HK2": 2.9},
		})
		require.NoError(t, err)
		assert.Equal(t, 0, a.Level)
		assert.Empty(t, a.Reasons)
	})

	t.Run("semester below floor", func(t *testing.T) {
		a, err := AssessAcademicWarning(Stats{
			SemGPA4: map[string]float64{"HK1": 2.0, "HK2": 0.8},
			CumGPA4: map[string]float64{"HK1": 2.0, "HK2": 1.4},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, a.Level)
		require.Len(t, a.Reasons, 1)
		assert.Equal(t, ReasonSemesterGPA, a.Reasons[0].Kind)
	})

	t.Run("cumulative below year threshold", func(t *testing.T) {
		a, err := AssessAcademicWarning(Stats{
			SemGPA4: map[string]float64{"HK5": 1.5},
			CumGPA4: map[string]float64{"HK5": 1.55},
		})
		require.NoError(t, err)
		assert.Equal(t, 3, a.Year)
		assert.Equal(t, 1.60, a.Threshold)
		assert.Equal(t, 1, a.Level)
		require.Len(t, a.Reasons, 1)
		assert.Equal(t, ReasonCumulativeGPA, a.Reasons[0].Kind)
	})
}

func TestResolveCourse(t *testing.T) {
	cur := &Curriculum{Semesters: []Semester{{Courses: []Course{
		{Code: "BAS1", Name: "Calculus 1"},
		{Code: "BAS2", Name: "Calculus 2"},
		{Code: "INT1313", Name: "Cơ sở dữ liệu"},
		{Code: "INT1434", Name: "Lập trình Web"},
	}}}}

	tests := []struct {
		name     string
		question string
		wantCode string
		wantOK   bool
	}{
		{"series number respected", "calculus 2", "BAS2", true},
		{"series number 1", "diem calculus 1", "BAS1", true},
		{"number omitted picks last base match", "calculus grade", "BAS2", true},
		{"code wins over name", "bas1 or calculus 2", "BAS1", true},
		{"alias expanded name", "diem co so du lieu", "INT1313", true},
		{"code match", "deadline int1434", "INT1434", true},
		{"conflicting number", "calculus 3", "", false},
		{"nothing", "hello there", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, ok := ResolveCourse(tt.question, cur)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantCode, ref.Code)
		})
	}

	_, ok := ResolveCourse("calculus", nil)
	assert.False(t, ok)
}
