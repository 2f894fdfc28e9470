package records

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ptit-hub/study-assistant/internal/domain/academic"
	"github.com/ptit-hub/study-assistant/internal/domain/shared"
	"github.com/ptit-hub/study-assistant/pkg/circuitbreaker"
)

const contextBody = `{
  "user": {"id": "u1", "name": "  Lan  "},
  "specialization": "design",
  "results": {
    "1": {
      "INT1154": {"grade": 8.5, "status": "Passed"},
      "BAS1150": {"grade": "abc", "status": "failed"},
      "SKD1101": {"grade": null, "status": null}
    }
  },
  "stats": {"semGpa4": {"1": 3.2, "2": "2.75", "3": {}}, "cumGpa4": {"1": 3.2}},
  "curriculum": {
    "name": "Multimedia Technology",
    "semesters": [
      {"semester": 1, "courses": [
        {"code": "INT1154", "name": "Intro to Programming", "credit": 3, "examFormat": " written "},
        {"code": "SKD1101", "name": "Physical Education 1", "credit": 1, "countInGpa": false},
        {"code": "", "name": "placeholder", "credit": 2}
      ]}
    ]
  },
  "deadlines": [
    {"title": "Lab 1", "courseCode": "INT1154", "endAt": "2025-01-10T10:00:00.000Z"},
    {"title": "Final", "courseCode": "INT1154", "isExam": true, "status": "Completed"}
  ]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultClientConfig(srv.URL + "/")
	return NewClient(cfg)
}

func TestClient_FetchContext(t *testing.T) {
	var gotPath, gotUser string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser = r.URL.Query().Get("userId")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(contextBody))
	})

	snap, err := client.FetchContext(context.Background(), "u 1")
	require.NoError(t, err)
	require.NotNil(t, snap)

	assert.Equal(t, "/api/chatbot/context", gotPath)
	assert.Equal(t, "u 1", gotUser)
	assert.Equal(t, "Lan", snap.User.Name)
	assert.Equal(t, "design", snap.Specialization)

	sem := snap.Results["1"]
	require.Len(t, sem, 3)
	assert.Equal(t, academic.StatusPassed, sem["INT1154"].Status)
	assert.InDelta(t, 8.5, sem["INT1154"].GradeOr(0), 1e-9)
	assert.False(t, sem["BAS1150"].HasGrade(), "non-numeric grade is dropped")
	assert.Equal(t, academic.StatusFailed, sem["BAS1150"].Status)
	assert.False(t, sem["SKD1101"].HasGrade())
	assert.Equal(t, academic.ResultStatus(""), sem["SKD1101"].Status)

	assert.Equal(t, map[string]float64{"1": 3.2, "2": 2.75}, snap.Stats.SemGPA4)

	require.NotNil(t, snap.Curriculum)
	assert.Equal(t, float64(DefaultRequiredCredits), snap.Curriculum.RequiredCredits)
	courses := snap.Curriculum.Courses()
	require.Len(t, courses, 2, "blank codes are skipped")
	assert.True(t, courses[0].CountInGPA)
	assert.True(t, courses[0].CountInCredits)
	assert.Equal(t, "written", courses[0].ExamFormat)
	assert.False(t, courses[1].CountInGPA)
	assert.Equal(t, "1", snap.Curriculum.Semesters[0].Name)

	require.Len(t, snap.Deadlines, 2)
	assert.Equal(t, academic.DeadlineUpcoming, snap.Deadlines[0].Status)
	assert.Equal(t, academic.DeadlineCompleted, snap.Deadlines[1].Status)
	assert.True(t, snap.Deadlines[1].IsExam)
}

func TestClient_FetchContext_WrongTypedFieldsAreSkipped(t *testing.T) {
	body := `{
		"user": {"id": 42, "name": ["Lan"]},
		"specialization": false,
		"results": {"1": {"INT1154": {"grade": 8, "status": "passed", "name": 7}}},
		"stats": {},
		"curriculum": {"name": {"vi": "MMT"}, "semesters": [{"semester": 1, "courses": [
			{"code": "INT1154", "name": "Programming", "credit": 3, "countInGpa": "false", "countInCredits": 1, "examFormat": 5}
		]}]},
		"deadlines": [
			{"title": 12, "courseCode": "INT1154", "endAt": {"$date": "x"}, "isExam": "yes", "status": null},
			{"title": "Lab 2", "isExam": "true", "status": "ONGOING"}
		]
	}`
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	})

	snap, err := client.FetchContext(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, "42", snap.User.ID)
	assert.Empty(t, snap.User.Name)
	assert.Empty(t, snap.Specialization)
	assert.InDelta(t, 8.0, snap.Results["1"]["INT1154"].GradeOr(0), 1e-9)

	courses := snap.Curriculum.Courses()
	require.Len(t, courses, 1)
	assert.False(t, courses[0].CountInGPA)
	assert.True(t, courses[0].CountInCredits)
	assert.Empty(t, courses[0].ExamFormat)

	require.Len(t, snap.Deadlines, 2)
	assert.Equal(t, "12", snap.Deadlines[0].Title)
	assert.Empty(t, snap.Deadlines[0].EndAt)
	assert.False(t, snap.Deadlines[0].IsExam)
	assert.Equal(t, academic.DeadlineUpcoming, snap.Deadlines[0].Status)
	assert.True(t, snap.Deadlines[1].IsExam)
	assert.Equal(t, academic.DeadlineOngoing, snap.Deadlines[1].Status)
}

func TestClient_OversizedBodyIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"name":"` + strings.Repeat("a", 256) + `"}`))
	}))
	defer srv.Close()

	cfg := DefaultClientConfig(srv.URL)
	cfg.MaxResponseBytes = 64
	client := NewClient(cfg)

	name, err := client.FetchUserName(context.Background(), "u1")
	assert.Empty(t, name)
	assert.True(t, shared.IsUnavailable(err))
	assert.ErrorIs(t, err, ErrResponseTooLarge)
}

func TestClient_FetchContext_NullCurriculum(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"user":{"id":"u1"},"results":{},"stats":{},"curriculum":null}`))
	})

	snap, err := client.FetchContext(context.Background(), "u1")
	require.NoError(t, err)
	assert.Nil(t, snap.Curriculum)
	assert.True(t, snap.Results.IsEmpty())
}

func TestClient_FetchDeadlines(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/deadlines", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":[{"title":"Essay","status":"overdue"},{"title":"Quiz"}]}`))
	})

	items, err := client.FetchDeadlines(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, academic.DeadlineOverdue, items[0].Status)
	assert.Equal(t, academic.DeadlineUpcoming, items[1].Status)
}

func TestClient_FetchUserName(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"present", `{"name":"Minh"}`, "Minh"},
		{"null", `{"name":null}`, ""},
		{"missing", `{}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/users/name", r.URL.Path)
				_, _ = w.Write([]byte(tt.body))
			})
			got, err := client.FetchUserName(context.Background(), "u1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_FailuresAreUnavailable(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"not found", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}},
		{"bad body", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler)
			snap, err := client.FetchContext(context.Background(), "u1")
			assert.Nil(t, snap)
			assert.True(t, shared.IsUnavailable(err))
		})
	}
}

func TestClient_TimeoutIsFinal(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	cfg := DefaultClientConfig(srv.URL)
	cfg.Timeout = 50 * time.Millisecond
	client := NewClient(cfg)

	_, err := client.FetchDeadlines(context.Background(), "u1")
	assert.True(t, shared.IsUnavailable(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "no retries")
}

func TestClient_BreakerOpensAfterFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := DefaultClientConfig(srv.URL)
	cfg.Breaker = circuitbreaker.New("records-test", circuitbreaker.WithFailureThreshold(2), circuitbreaker.WithCoolDown(time.Minute))
	client := NewClient(cfg)

	for i := 0; i < 4; i++ {
		_, err := client.FetchContext(context.Background(), "u1")
		assert.True(t, shared.IsUnavailable(err))
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, circuitbreaker.StateOpen, client.BreakerState())
}

func TestFileProvider_YAML(t *testing.T) {
	doc := `
user:
  id: offline
  name: Lan
results:
  1:
    INT1154: {grade: 7.5, status: passed}
stats:
  cumGpa4:
    1: 3.0
curriculum:
  name: Multimedia
  requiredCredits: 140
  semesters:
    - semester: 1
      courses:
        - {code: INT1154, name: Intro to Programming, credit: 3}
deadlines:
  - {title: Lab 1, courseCode: INT1154, endAt: 2025-01-10T10:00:00Z}
`
	path := filepath.Join(t.TempDir(), "snapshot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	p, err := LoadFile(path)
	require.NoError(t, err)

	snap, err := p.FetchContext(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "offline", snap.User.ID)
	assert.InDelta(t, 7.5, snap.Results["1"]["INT1154"].GradeOr(0), 1e-9)
	assert.Equal(t, map[string]float64{"1": 3.0}, snap.Stats.CumGPA4)
	assert.Equal(t, 140.0, snap.Curriculum.RequiredCredits)

	items, err := p.FetchDeadlines(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "2025-01-10T10:00:00Z", items[0].EndAt)

	name, err := p.FetchUserName(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Lan", name)
}

func TestFileProvider_JSONAndErrors(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "snap.json")
	require.NoError(t, os.WriteFile(good, []byte(contextBody), 0o600))
	p, err := LoadFile(good)
	require.NoError(t, err)
	snap, err := p.FetchContext(context.Background(), "other")
	require.NoError(t, err)
	assert.Equal(t, "u1", snap.User.ID)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{`), 0o600))
	_, err = LoadFile(bad)
	assert.ErrorIs(t, err, shared.ErrMalformed)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestClient_ClientErrorsKeepBreakerClosed(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	})

	for i := 0; i < 5; i++ {
		_, err := client.FetchContext(context.Background(), "unknown")
		assert.True(t, shared.IsUnavailable(err))
	}
	assert.Equal(t, int32(5), atomic.LoadInt32(&calls))
	assert.Equal(t, circuitbreaker.StateClosed, client.BreakerState())
}
