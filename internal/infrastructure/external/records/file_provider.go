package records

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ptit-hub/study-assistant/internal/domain/academic"
	"github.com/ptit-hub/study-assistant/internal/domain/shared"
)

// FileProvider serves one context document from disk for every user id.
// It backs `assistant ask --snapshot` so the dialogue can be exercised offline.
// YAML and JSON are both accepted; the body has the same shape as
// GET /api/chatbot/context.
type FileProvider struct {
	path     string
	snapshot *academic.Snapshot
}

var _ academic.RecordsProvider = (*FileProvider)(nil)

// LoadFile reads and decodes the document at path.
func LoadFile(path string) (*FileProvider, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot file: %w", err)
	}

	var dto ContextDTO
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = decodeYAML(raw, &dto)
	default:
		err = json.Unmarshal(raw, &dto)
	}
	if err != nil {
		return nil, shared.WrapError("records", "LoadFile", shared.ErrMalformed, "decode "+path, err)
	}

	return &FileProvider{
		path:     path,
		snapshot: NewMapper().SnapshotFromDTO(&dto),
	}, nil
}

// FetchContext returns a copy of the loaded snapshot tagged with userID.
func (p *FileProvider) FetchContext(_ context.Context, userID string) (*academic.Snapshot, error) {
	snap := *p.snapshot
	if snap.User.ID == "" {
		snap.User.ID = userID
	}
	return &snap, nil
}

// FetchDeadlines returns the deadlines embedded in the document.
func (p *FileProvider) FetchDeadlines(_ context.Context, _ string) ([]academic.Deadline, error) {
	out := make([]academic.Deadline, len(p.snapshot.Deadlines))
	copy(out, p.snapshot.Deadlines)
	return out, nil
}

// FetchUserName returns the document's user name.
func (p *FileProvider) FetchUserName(_ context.Context, _ string) (string, error) {
	return p.snapshot.User.Name, nil
}

// decodeYAML decodes YAML into the JSON DTOs. The lenient scalar types only
// implement json.Unmarshaler, so the document is re-encoded as JSON first.
func decodeYAML(raw []byte, dst interface{}) error {
	var doc interface{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	body, err := json.Marshal(stringKeys(doc))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, dst)
}

// stringKeys converts YAML mappings with non-string keys (semester 1: ...)
// into JSON-encodable maps.
func stringKeys(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, val := range t {
			t[k] = stringKeys(val)
		}
		return t
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = stringKeys(val)
		}
		return out
	case []interface{}:
		for i, val := range t {
			t[i] = stringKeys(val)
		}
		return t
	default:
		return v
	}
}
