// Package intent is the Intent Classifier Adapter: it loads a frozen TF-IDF +
// logistic regression model exported as JSON and scores normalized questions.
package intent

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"regexp"
	"strings"

	"github.com/ptit-hub/study-assistant/internal/domain/shared"
)

// Model is the exported classifier. Field names follow the export script.
type Model struct {
	Classes []string `json:"classes"`

	// Vocabulary maps a term (unigram or space-joined bigram) to a feature index.
	Vocabulary map[string]int `json:"vocabulary"`

	IDF       []float64   `json:"idf"`
	Coef      [][]float64 `json:"coef"`
	Intercept []float64   `json:"intercept"`

	SublinearTF bool  `json:"sublinear_tf"`
	NgramRange  []int `json:"ngram_range"`
}

// LoadModel reads and validates an artifact.
func LoadModel(path string) (*Model, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m Model
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, shared.WrapError("intent", "LoadModel", shared.ErrMalformed, "decode artifact", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks that the matrix shapes agree.
func (m *Model) Validate() error {
	malformed := func(msg string) error {
		return shared.NewDomainError("intent", "Validate", shared.ErrMalformed, msg)
	}

	if len(m.Classes) < 2 {
		return malformed("need at least two classes")
	}
	rows := len(m.Classes)
	if rows == 2 && len(m.Coef) == 1 {
		rows = 1
	}
	if len(m.Coef) != rows || len(m.Intercept) != rows {
		return malformed(fmt.Sprintf("coef/intercept rows %d/%d, want %d", len(m.Coef), len(m.Intercept), rows))
	}
	for i, row := range m.Coef {
		if len(row) != len(m.IDF) {
			return malformed(fmt.Sprintf("coef row %d has %d features, idf has %d", i, len(row), len(m.IDF)))
		}
	}
	for term, idx := range m.Vocabulary {
		if idx < 0 || idx >= len(m.IDF) {
			return malformed(fmt.Sprintf("term %q index %d out of range", term, idx))
		}
	}
	return nil
}

// Predict returns the most probable class and its probability.
func (m *Model) Predict(text string) (string, float64) {
	probs := m.Probabilities(text)
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return m.Classes[best], probs[best]
}

// Probabilities returns one probability per class, in Classes order.
func (m *Model) Probabilities(text string) []float64 {
	features := m.vectorize(text)

	scores := make([]float64, len(m.Coef))
	for i, row := range m.Coef {
		z := m.Intercept[i]
		for idx, v := range features {
			z += row[idx] * v
		}
		scores[i] = z
	}

	if len(m.Coef) == 1 {
		p := 1 / (1 + math.Exp(-scores[0]))
		return []float64{1 - p, p}
	}
	return softmax(scores)
}

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// vectorize builds the l2-normalized tf-idf vector as a sparse map.
func (m *Model) vectorize(text string) map[int]float64 {
	tokens := tokenPattern.FindAllString(strings.ToLower(text), -1)

	lo, hi := 1, 1
	if len(m.NgramRange) == 2 {
		lo, hi = m.NgramRange[0], m.NgramRange[1]
	}

	counts := make(map[int]float64)
	for n := lo; n <= hi; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			term := strings.Join(tokens[i:i+n], " ")
			if idx, ok := m.Vocabulary[term]; ok {
				counts[idx]++
			}
		}
	}

	var norm float64
	for idx, tf := range counts {
		if m.SublinearTF {
			tf = 1 + math.Log(tf)
		}
		v := tf * m.IDF[idx]
		counts[idx] = v
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for idx := range counts {
			counts[idx] /= norm
		}
	}
	return counts
}

func softmax(scores []float64) []float64 {
	maxScore := math.Inf(-1)
	for _, s := range scores {
		if s > maxScore {
			maxScore = s
		}
	}
	out := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		out[i] = math.Exp(s - maxScore)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
