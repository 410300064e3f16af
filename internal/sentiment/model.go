package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"
)

const (
	// UnknownToken stands in for words outside the vocabulary.
	UnknownToken = "UNK"

	DefaultMaxFeatures = 2000
	DefaultMaxLen      = 40
)

// Model is a two-class multinomial naive Bayes classifier over a fixed
// vocabulary. Class 1 is positive, class 0 is everything else.
type Model struct {
	Vocabulary    map[string]int `json:"vocabulary"`
	MaxLen        int            `json:"max_len"`
	LogPrior      [2]float64     `json:"log_prior"`
	LogLikelihood [2][]float64   `json:"log_likelihood"`
	Accuracy      float64        `json:"accuracy"`
	TrainedAt     time.Time      `json:"trained_at"`
}

// encode maps text to vocabulary indices, keeping the last MaxLen tokens.
func (m *Model) encode(text string) []int {
	tokens := Tokenize(text)
	if m.MaxLen > 0 && len(tokens) > m.MaxLen {
		tokens = tokens[len(tokens)-m.MaxLen:]
	}
	unk := m.Vocabulary[UnknownToken]
	ids := make([]int, len(tokens))
	for i, tok := range tokens {
		if id, ok := m.Vocabulary[tok]; ok {
			ids[i] = id
		} else {
			ids[i] = unk
		}
	}
	return ids
}

// PositiveProbability returns P(positive | text).
func (m *Model) PositiveProbability(text string) float64 {
	ids := m.encode(text)
	neg, pos := m.LogPrior[0], m.LogPrior[1]
	for _, id := range ids {
		neg += m.LogLikelihood[0][id]
		pos += m.LogLikelihood[1][id]
	}
	// logistic of the log-odds, stable for large magnitudes
	d := pos - neg
	if d >= 0 {
		return 1 / (1 + math.Exp(-d))
	}
	e := math.Exp(d)
	return e / (1 + e)
}

// ClassifyHeadlines scores each headline. It never fails once a model is loaded.
func (m *Model) ClassifyHeadlines(_ context.Context, headlines []string) ([]float64, error) {
	out := make([]float64, len(headlines))
	for i, h := range headlines {
		out[i] = m.PositiveProbability(h)
	}
	return out, nil
}

func (m *Model) validate() error {
	if len(m.Vocabulary) == 0 {
		return fmt.Errorf("model has empty vocabulary")
	}
	if _, ok := m.Vocabulary[UnknownToken]; !ok {
		return fmt.Errorf("model vocabulary has no %s entry", UnknownToken)
	}
	size := len(m.LogLikelihood[0])
	if size == 0 || len(m.LogLikelihood[1]) != size {
		return fmt.Errorf("model likelihood tables are inconsistent")
	}
	for word, id := range m.Vocabulary {
		if id < 0 || id >= size {
			return fmt.Errorf("vocabulary index %d for %q out of range", id, word)
		}
	}
	return nil
}

// Save writes the model as JSON, replacing path atomically.
func (m *Model) Save(path string) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal model: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create model dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write model: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace model: %w", err)
	}
	return nil
}

// Load reads a model written by Save.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", path, err)
	}
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse model %s: %w", path, err)
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("invalid model %s: %w", path, err)
	}
	return &m, nil
}
