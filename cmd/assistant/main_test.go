package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const studentYAML = `
user:
  id: b21dccn001
  name: Nguyen Van An
results:
  HK1:
    INT1306:
      grade: 8.5
      status: passed
stats:
  cumGpa4:
    HK1: 3.12
curriculum:
  name: Multimedia Technology
  requiredCredits: 150
  semesters:
    - semester: 1
      courses:
        - code: INT1306
          name: Data Structures and Algorithms
          credit: 3
`

// isolateEnv points every optional collaborator at nothing so the command
// runs offline.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"REDIS_URL", "DATABASE_URL", "LLM_PROVIDER", "APP_ENV", "LOG_LEVEL", "TELEGRAM_BOT_TOKEN"} {
		t.Setenv(key, "")
	}
	t.Setenv("INTENT_MODEL_PATH", filepath.Join(t.TempDir(), "missing.json"))
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeSnapshot(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "student.yaml")
	require.NoError(t, os.WriteFile(path, []byte(studentYAML), 0o600))
	return path
}

func TestAsk_GreetsByNameFromSnapshot(t *testing.T) {
	isolateEnv(t)
	path := writeSnapshot(t)

	out, err := runCLI(t, "ask", "--user", "b21dccn001", "--snapshot", path, "--no-llm", "xin chao")

	require.NoError(t, err)
	assert.Contains(t, out, "Hi Nguyen Van An!")
}

func TestAsk_AnswersGPAFromSnapshot(t *testing.T) {
	isolateEnv(t)
	path := writeSnapshot(t)

	out, err := runCLI(t, "ask", "-u", "b21dccn001", "-s", path, "--no-llm", "gpa", "cua", "toi")

	require.NoError(t, err)
	assert.Contains(t, out, "3.12 / 4.0")
}

func TestAsk_RequiresQuestion(t *testing.T) {
	isolateEnv(t)

	_, err := runCLI(t, "ask", "--user", "b21dccn001")

	assert.Error(t, err)
}

func TestAsk_BadSnapshotFails(t *testing.T) {
	isolateEnv(t)

	_, err := runCLI(t, "ask", "--snapshot", filepath.Join(t.TempDir(), "missing.yaml"), "gpa")

	assert.ErrorContains(t, err, "load snapshot")
}

func TestForget_NeedsRedis(t *testing.T) {
	isolateEnv(t)

	_, err := runCLI(t, "forget", "--user", "b21dccn001")

	assert.ErrorContains(t, err, "REDIS_URL is not set")
}

func TestBot_NeedsToken(t *testing.T) {
	isolateEnv(t)

	_, err := runCLI(t, "bot")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TELEGRAM_BOT_TOKEN")
}

func TestFeatures_ListsFlags(t *testing.T) {
	isolateEnv(t)
	t.Setenv("FEATURE_LLM_FALLBACK", "false")

	out, err := runCLI(t, "features", "--user", "b21dccn001")

	require.NoError(t, err)
	assert.Contains(t, out, "FOR USER")
	assert.Contains(t, out, "cache.snapshots")
	assert.Regexp(t, `llm\.fallback\s+false\s+0%`, out)
}

func TestInvalidConfigFailsEveryCommand(t *testing.T) {
	isolateEnv(t)
	t.Setenv("APP_ENV", "moon")

	_, err := runCLI(t, "features")

	assert.ErrorContains(t, err, "APP_ENV")
}
