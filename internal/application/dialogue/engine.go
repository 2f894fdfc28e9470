package dialogue

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ptit-hub/study-assistant/internal/domain/academic"
	"github.com/ptit-hub/study-assistant/internal/domain/shared"
	"github.com/ptit-hub/study-assistant/pkg/pseudonym"
	"github.com/ptit-hub/study-assistant/pkg/textnorm"
	"github.com/ptit-hub/study-assistant/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// COLLABORATORS
// ══════════════════════════════════════════════════════════════════════════════

// Classifier scores a normalized question. ok is false when there is no
// model or the prediction is below the confidence floor.
type Classifier interface {
	Classify(text string) (label string, confidence float64, ok bool)
}

// GeneralQA answers questions outside the academic records. An empty
// systemPrompt selects the provider default. Any error means "no answer";
// callers never inspect reply text for failures.
type GeneralQA interface {
	Ask(ctx context.Context, message, systemPrompt string) (string, error)
}

// FeatureGate evaluates a feature flag for a user.
type FeatureGate interface {
	IsEnabledFor(feature, userID string) bool
}

// Feature names consulted by the engine.
const (
	FeatureLLMFallback = "llm.fallback"
	FeatureTurnLog     = "turnlog.enabled"
)

var errNoRecordsProvider = shared.NewDomainError("dialogue", "HandleChat", shared.ErrNotConfigured,
	"no records provider")

// Turn is one answered question as written to the turn log.
type Turn struct {
	ID         uuid.UUID
	UserHash   string
	Text       string
	Intent     Intent
	Source     Source
	Rule       string
	Confidence float64
	Latency    time.Duration
	At         time.Time
}

// TurnRecorder persists turns. Record must not block the reply; failures are
// the recorder's to log.
type TurnRecorder interface {
	Record(ctx context.Context, turn Turn)
}

// Dependencies wires an Engine. Records is required; every other field is
// optional.
type Dependencies struct {
	Records    academic.RecordsProvider
	Classifier Classifier
	QA         GeneralQA
	Features   FeatureGate
	Turns      TurnRecorder
	Sessions   *SessionStore
	Rules      []Rule
	Logger     *slog.Logger

	// Location renders deadline and exam times. nil means Asia/Ho_Chi_Minh.
	Location *time.Location

	// Now defaults to time.Now.
	Now func() time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// ENGINE
// ══════════════════════════════════════════════════════════════════════════════

// Engine answers chat turns. It is safe for concurrent use.
type Engine struct {
	records    academic.RecordsProvider
	classifier Classifier
	qa         GeneralQA
	features   FeatureGate
	turns      TurnRecorder
	sessions   *SessionStore
	rules      []Rule
	logger     *slog.Logger
	location   *time.Location
	now        func() time.Time
}

// NewEngine creates an Engine.
func NewEngine(deps Dependencies) *Engine {
	e := &Engine{
		records:    deps.Records,
		classifier: deps.Classifier,
		qa:         deps.QA,
		features:   deps.Features,
		turns:      deps.Turns,
		sessions:   deps.Sessions,
		rules:      deps.Rules,
		logger:     deps.Logger,
		location:   timeutil.OrHanoi(deps.Location),
		now:        deps.Now,
	}
	if e.sessions == nil {
		e.sessions = NewSessionStore()
	}
	if e.rules == nil {
		e.rules = DefaultRules()
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	e.logger = e.logger.With("component", "dialogue")
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Sessions exposes the session store.
func (e *Engine) Sessions() *SessionStore {
	return e.sessions
}

// HandleChat answers one message. It always returns a reply: collaborator
// failures become apology text and a panic becomes the unsupported message.
func (e *Engine) HandleChat(ctx context.Context, text, userID string) (reply string) {
	start := e.now()
	t := newTurn(e.records, e.logger, text, userID)
	route := Route{Source: SourceUnsupported}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("turn panicked", "user", pseudonym.UserID(userID), "panic", r)
			reply = msgUnsupported
			route = Route{Source: SourceUnsupported}
		}
		e.record(ctx, t, route, e.now().Sub(start))
	}()

	reply, route = e.respond(ctx, t)
	return reply
}

// respond walks the routing cascade.
func (e *Engine) respond(ctx context.Context, t *turn) (string, Route) {
	session := e.sessions.Get(t.userID)

	if route, ok := e.Route(t.text, session.LastIntent()); ok {
		return e.dispatch(ctx, t, session, route), route
	}

	// A bare course name still counts as a course question.
	if t.userID != "" {
		if snap := t.snapshot(ctx); snap != nil {
			if _, ok := academic.ResolveCourse(t.text, snap.Curriculum); ok {
				route := Route{Intent: IntentCourse, Source: SourceEntity}
				return e.dispatch(ctx, t, session, route), route
			}
		}
	}

	small := Route{Source: SourceSmallTalk}
	switch {
	case isGreeting(t.text):
		return e.answerGreeting(ctx, t), small
	case isShortAck(t.text):
		return msgClarify, small
	case isAbout(t.text):
		return msgAbout, small
	}

	if answer, ok := e.askGeneral(ctx, t); ok {
		return answer, Route{Source: SourceLLM}
	}
	return msgUnsupported, Route{Source: SourceUnsupported}
}

// Route picks an intent for normalized text: rules first, then the
// classifier, then a continuation of lastIntent.
func (e *Engine) Route(text string, lastIntent Intent) (Route, bool) {
	if rule, ok := MatchRule(e.rules, text); ok {
		return Route{Intent: rule.Intent, Source: SourceRule, Rule: rule.Name, Confidence: 1}, true
	}

	if e.classifier != nil {
		if label, confidence, ok := e.classifier.Classify(text); ok {
			if intent, known := IntentFromLabel(label); known {
				return Route{Intent: intent, Source: SourceClassifier, Confidence: confidence}, true
			}
			return Route{}, false
		}
	}

	if lastIntent != IntentNone && isContinuation(text) {
		return Route{Intent: lastIntent, Source: SourceContinuation}, true
	}
	return Route{}, false
}

// dispatch runs the builder for route.Intent. Without a user id, intents
// that read records answer with a fixed request for the id and the session
// is left untouched.
func (e *Engine) dispatch(ctx context.Context, t *turn, session *Session, route Route) string {
	if route.Intent.NeedsUser() && t.userID == "" {
		return needUserMessage(route.Intent)
	}
	session.SetLastIntent(route.Intent)

	switch route.Intent {
	case IntentProgramInfo:
		return msgProgramInfo
	case IntentExamSchedule:
		return e.answerExamSchedule(ctx, t)
	case IntentExamFormat:
		return e.answerExamFormat(ctx, t)
	case IntentAcademicWarning:
		return e.answerWarning(ctx, t)
	case IntentGraduation:
		return e.answerGraduation(ctx, t)
	case IntentDeadline:
		return e.answerDeadline(ctx, t)
	case IntentDebtList:
		return e.answerDebtList(ctx, t)
	case IntentCredits:
		return e.answerCredits(ctx, t)
	case IntentStrengths:
		return e.answerStrengths(ctx, t)
	case IntentNonGPACourses:
		return e.answerNonGPACourses(ctx, t)
	case IntentSemesterGPA:
		return e.answerSemesterGPA(ctx, t)
	case IntentBestSemester:
		return e.answerBestSemester(ctx, t)
	case IntentGPA:
		return e.answerGPA(ctx, t)
	case IntentCourse:
		return e.answerCourse(ctx, t)
	default:
		return msgUnsupported
	}
}

func (e *Engine) askGeneral(ctx context.Context, t *turn) (string, bool) {
	if e.qa == nil || !e.enabled(FeatureLLMFallback, t.userID) {
		return "", false
	}
	answer, err := e.qa.Ask(ctx, t.raw, "")
	if err != nil {
		e.logger.Warn("general QA unavailable", "user", pseudonym.UserID(t.userID), "error", err)
		return "", false
	}
	return answer, true
}

// enabled treats a missing gate as "everything on".
func (e *Engine) enabled(feature, userID string) bool {
	if e.features == nil {
		return true
	}
	return e.features.IsEnabledFor(feature, userID)
}

func (e *Engine) record(ctx context.Context, t *turn, route Route, latency time.Duration) {
	e.logger.Debug("turn answered",
		"user", pseudonym.UserID(t.userID),
		"intent", string(route.Intent),
		"source", string(route.Source),
		"rule", route.Rule,
		"latency_ms", latency.Milliseconds(),
	)
	if e.turns == nil || !e.enabled(FeatureTurnLog, t.userID) {
		return
	}
	e.turns.Record(ctx, Turn{
		ID:         uuid.New(),
		UserHash:   pseudonym.UserID(t.userID),
		Text:       t.text,
		Intent:     route.Intent,
		Source:     route.Source,
		Rule:       route.Rule,
		Confidence: route.Confidence,
		Latency:    latency,
		At:         e.now(),
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// TURN
// ══════════════════════════════════════════════════════════════════════════════

// turn carries one question through routing and answering. The snapshot is
// fetched at most once per turn.
type turn struct {
	records academic.RecordsProvider
	logger  *slog.Logger
	raw     string
	text    string
	userID  string

	fetched bool
	snap    *academic.Snapshot
}

func newTurn(records academic.RecordsProvider, logger *slog.Logger, text, userID string) *turn {
	return &turn{
		records: records,
		logger:  logger,
		raw:     text,
		text:    textnorm.Normalize(text),
		userID:  userID,
	}
}

// snapshot returns the student's records or nil when unavailable.
func (t *turn) snapshot(ctx context.Context) *academic.Snapshot {
	if t.fetched {
		return t.snap
	}
	t.fetched = true
	if t.records == nil || t.userID == "" {
		return nil
	}
	snap, err := t.records.FetchContext(ctx, t.userID)
	if err != nil {
		t.logger.Warn("records unavailable", "user", pseudonym.UserID(t.userID), "error", err)
		return nil
	}
	t.snap = snap
	return snap
}
