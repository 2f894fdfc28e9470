package intent

import (
	"errors"
	"io/fs"
	"log/slog"
)

// DefaultMinConfidence is the probability floor below which a prediction is dropped.
const DefaultMinConfidence = 0.45

// Adapter wraps an optional Model. Without a model every call returns no
// prediction and the router runs on rules alone.
type Adapter struct {
	model         *Model
	minConfidence float64
	logger        *slog.Logger
}

// NewAdapter wraps model. A nil model is valid.
func NewAdapter(model *Model, minConfidence float64, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}
	return &Adapter{
		model:         model,
		minConfidence: minConfidence,
		logger:        logger.With("component", "intent"),
	}
}

// Open loads the artifact at path once. A missing file is a normal steady
// state; any other load error is logged and also yields a model-less adapter.
func Open(path string, minConfidence float64, logger *slog.Logger) *Adapter {
	a := NewAdapter(nil, minConfidence, logger)
	if path == "" {
		return a
	}

	model, err := LoadModel(path)
	switch {
	case err == nil:
		a.model = model
		a.logger.Info("intent model loaded", "path", path, "classes", model.Classes, "features", len(model.IDF))
	case errors.Is(err, fs.ErrNotExist):
		a.logger.Info("intent model not found, running on rules only", "path", path)
	default:
		a.logger.Error("intent model unusable, running on rules only", "path", path, "error", err)
	}
	return a
}

// Loaded reports whether a model is present.
func (a *Adapter) Loaded() bool {
	return a != nil && a.model != nil
}

// Classify scores normalized text and returns the best label with its
// probability. ok is false without a model or when the probability is below
// the floor.
func (a *Adapter) Classify(text string) (label string, confidence float64, ok bool) {
	if !a.Loaded() {
		return "", 0, false
	}

	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("intent model panicked", "panic", r)
			label, confidence, ok = "", 0, false
		}
	}()

	label, confidence = a.model.Predict(text)
	if confidence < a.minConfidence {
		return "", confidence, false
	}
	return label, confidence, true
}
