// Package conversation composes triage, extraction, and the consultation
// state machine into the per-turn dialogue flow, and owns persistence of
// session state around each turn.
package conversation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vetassist/vetchat/internal/consult"
	"github.com/vetassist/vetchat/internal/domain"
	"github.com/vetassist/vetchat/internal/emergency"
	"github.com/vetassist/vetchat/internal/extract"
	"github.com/vetassist/vetchat/internal/llm"
	"github.com/vetassist/vetchat/internal/store"
	"github.com/vetassist/vetchat/internal/triage"
)

// EmergencyLog receives detected emergencies. Append failures are logged
// and never block the reply.
type EmergencyLog interface {
	Append(ctx context.Context, rec *emergency.Record) error
}

// Options bounds the engine's session and model behavior.
type Options struct {
	SessionTTL   time.Duration
	HistoryLimit int
	LLMTimeout   time.Duration
}

// TurnResult is the outcome of one processed turn.
type TurnResult struct {
	Response   string
	SessionID  string
	Profile    domain.PetProfile
	Emergency  bool
	Categories []string
	Stage      domain.Stage
}

// Engine processes conversation turns.
type Engine struct {
	store       store.SessionStore
	client      llm.Client
	prompts     *llm.Builder
	emergencies EmergencyLog
	logger      *slog.Logger
	opts        Options
}

// NewEngine wires the per-turn pipeline. emergencies may be nil, in which
// case detected emergencies are only logged.
func NewEngine(s store.SessionStore, client llm.Client, prompts *llm.Builder, emergencies EmergencyLog, logger *slog.Logger, opts Options) *Engine {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 12
	}
	return &Engine{
		store:       s,
		client:      client,
		prompts:     prompts,
		emergencies: emergencies,
		logger:      logger,
		opts:        opts,
	}
}

// HandleTurn runs one turn of the dialogue. Triage runs before anything
// else so an emergency short-circuits the slot-filling flow regardless of
// session stage. The caller always gets a conversational reply; model and
// store failures degrade to deterministic fallbacks.
func (e *Engine) HandleTurn(ctx context.Context, userID, sessionID, message string, seed *domain.PetProfile, location string) (*TurnResult, error) {
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	key := store.Key{UserID: userID, SessionID: sessionID}

	rec, err := e.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			e.logger.Warn("session load failed, starting fresh",
				slog.String("session_id", sessionID),
				slog.String("error", err.Error()),
			)
		}
		rec = domain.NewSessionRecord(userID, sessionID)
	}
	if seed != nil {
		rec.Profile.Merge(*seed)
	}
	if location != "" {
		rec.LocationSummary = location
	}
	rec.MessageCount++

	tri := triage.Classify(message)
	if tri.Emergency {
		return e.handleEmergency(ctx, key, rec, message, tri), nil
	}

	// A new symptom after an assessment starts a fresh consultation for
	// the new complaint; identity facts about the animal carry over.
	if rec.Consultation.Stage == domain.StageAssessed && hasNewSymptom(rec.Profile, message) {
		consult.Reset(&rec.Consultation)
	}

	rec.Profile = extract.Extract(message, rec.Profile)
	e.observeSlots(rec, message)
	rec.AppendTurn("user", message, e.opts.HistoryLimit)

	var response string
	if rec.Consultation.Stage == domain.StageReady {
		response = e.assess(ctx, rec)
		consult.GiveAssessment(&rec.Consultation)
	} else {
		response = e.reply(ctx, rec, message)
	}

	rec.AppendTurn("assistant", response, e.opts.HistoryLimit)
	e.persist(ctx, key, rec)

	return &TurnResult{
		Response:  response,
		SessionID: sessionID,
		Profile:   rec.Profile,
		Stage:     rec.Consultation.Stage,
	}, nil
}

// Profile returns the current session record.
func (e *Engine) Profile(ctx context.Context, userID, sessionID string) (*domain.SessionRecord, error) {
	return e.store.Get(ctx, store.Key{UserID: userID, SessionID: sessionID})
}

// Clear deletes the session record.
func (e *Engine) Clear(ctx context.Context, userID, sessionID string) error {
	return e.store.Delete(ctx, store.Key{UserID: userID, SessionID: sessionID})
}

func (e *Engine) handleEmergency(ctx context.Context, key store.Key, rec *domain.SessionRecord, message string, tri triage.Result) *TurnResult {
	rec.EmergencyFlag = true
	rec.AppendTurn("user", message, e.opts.HistoryLimit)

	response := llm.EmergencyResponse(tri.Categories)
	rec.AppendTurn("assistant", response, e.opts.HistoryLimit)

	if e.emergencies != nil {
		err := e.emergencies.Append(ctx, &emergency.Record{
			UserID:     key.UserID,
			SessionID:  key.SessionID,
			Message:    message,
			Categories: tri.Categories,
		})
		if err != nil {
			e.logger.Error("emergency log append failed", slog.String("error", err.Error()))
		}
	}
	e.logger.Warn("emergency detected",
		slog.String("session_id", key.SessionID),
		slog.Any("categories", tri.Categories),
	)

	e.persist(ctx, key, rec)

	return &TurnResult{
		Response:   response,
		SessionID:  key.SessionID,
		Profile:    rec.Profile,
		Emergency:  true,
		Categories: tri.Categories,
		Stage:      rec.Consultation.Stage,
	}
}

// observeSlots marks consultation slots gathered from the updated profile
// and from slot-bearing phrases in the turn itself.
func (e *Engine) observeSlots(rec *domain.SessionRecord, message string) {
	st := &rec.Consultation
	if rec.Profile.Species != "" {
		consult.MarkGathered(st, domain.SlotSpecies)
	}
	if rec.Profile.Age != "" {
		consult.MarkGathered(st, domain.SlotAge)
	}
	if rec.Profile.Breed != "" {
		consult.MarkGathered(st, domain.SlotBreed)
	}
	if onset, ok := extract.Duration(message); ok {
		if st.SymptomOnset == "" {
			st.SymptomOnset = onset
		}
		consult.MarkGathered(st, domain.SlotDuration)
	}
	if severity, ok := extract.Severity(message); ok {
		if st.Urgency == "" {
			st.Urgency = severity
		}
		consult.MarkGathered(st, domain.SlotSeverity)
	}
	if extract.BehaviorNoted(message) {
		consult.MarkGathered(st, domain.SlotBehavior)
	}
	if extract.ContextNoted(message) {
		consult.MarkGathered(st, domain.SlotContext)
	}
}

// reply asks the model for the next conversational turn, falling back to
// the deterministic template on any model failure.
func (e *Engine) reply(ctx context.Context, rec *domain.SessionRecord, message string) string {
	nextSlot, hasNext := consult.NextSlot(&rec.Consultation)
	hint := ""
	if hasNext {
		hint = consult.Question(nextSlot)
	}

	req := e.prompts.Build(rec, message, hint)
	text, err := e.generate(ctx, req)
	if err != nil {
		e.logger.Warn("model call failed, using fallback reply", slog.String("error", err.Error()))
		return llm.Fallback(nextSlot, hasNext, lastSymptom(rec.Profile))
	}
	return text
}

// assess emits the assessment response once all essential slots are
// gathered.
func (e *Engine) assess(ctx context.Context, rec *domain.SessionRecord) string {
	req := e.prompts.BuildAssessment(rec)
	text, err := e.generate(ctx, req)
	if err != nil {
		e.logger.Warn("model call failed, using fallback assessment", slog.String("error", err.Error()))
		return llm.FallbackAssessment(rec.Profile, rec.Consultation.SymptomOnset, rec.Consultation.Urgency)
	}
	return text
}

// generate bounds the model call with the configured timeout so an
// unbounded provider hang never propagates to the caller.
func (e *Engine) generate(ctx context.Context, req *llm.Request) (string, error) {
	if e.client == nil {
		return "", errors.New("no model configured")
	}
	if e.opts.LLMTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.LLMTimeout)
		defer cancel()
	}
	return e.client.Generate(ctx, req)
}

func (e *Engine) persist(ctx context.Context, key store.Key, rec *domain.SessionRecord) {
	if err := e.store.Put(ctx, key, rec, e.opts.SessionTTL); err != nil {
		e.logger.Error("session persist failed", slog.String("error", err.Error()))
	}
}

// hasNewSymptom reports whether message mentions a symptom not yet
// recorded on the profile.
func hasNewSymptom(profile domain.PetProfile, message string) bool {
	updated := extract.Extract(message, profile)
	return len(updated.CurrentSymptoms) > len(profile.CurrentSymptoms)
}

func lastSymptom(profile domain.PetProfile) string {
	if len(profile.CurrentSymptoms) == 0 {
		return ""
	}
	return profile.CurrentSymptoms[len(profile.CurrentSymptoms)-1]
}
