package session

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/ONSdigital/sdx-survey-sync/internal/client"
	"github.com/ONSdigital/sdx-survey-sync/internal/locator"
)

// AnsweringSession renders a survey for a respondent, pre-fills it with any
// answers already stored, and stores the answers when the survey is
// completed.
type AnsweringSession struct {
	store     Store
	renderer  Renderer
	notifier  Notifier
	transform TextTransform
	loc       locator.Locator
	logger    *zap.Logger

	mu      sync.Mutex
	state   State
	model   Model
	lastErr error
}

// NewAnswering creates an answering session for the answer set named by loc.
// transform, when not nil, is registered on the model as its text transform.
func NewAnswering(store Store, renderer Renderer, notifier Notifier, transform TextTransform, loc locator.Locator, logger *zap.Logger) *AnsweringSession {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnsweringSession{
		store:     store,
		renderer:  renderer,
		notifier:  notifier,
		transform: transform,
		loc:       loc,
		logger: logger.With(
			zap.String("survey_id", loc.SurveyID),
			zap.String("answer_id", loc.AnswerID),
		),
	}
}

// State returns the current state.
func (s *AnsweringSession) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the error that caused the last failure, if any.
func (s *AnsweringSession) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Model returns the rendered model once the definition has loaded.
func (s *AnsweringSession) Model() Model {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

// Start loads the definition, builds the model from it, then loads and
// applies the stored answers. The answer set is fetched only once the model
// exists. A missing answer set means the respondent has not answered yet;
// any other failure to read it ends the flow.
func (s *AnsweringSession) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != Idle {
		s.mu.Unlock()
		return ErrStarted
	}
	if s.loc.SurveyID == "" {
		s.mu.Unlock()
		return s.fail(&locator.ConfigurationError{Param: locator.ParamSurvey}, NoticeMisconfigured)
	}
	if err := s.loc.RequireAnswer(); err != nil {
		s.mu.Unlock()
		return s.fail(err, NoticeMisconfigured)
	}
	s.state = LoadingDefinition
	s.mu.Unlock()

	s.logger.Info("Loading survey definition")
	def, err := s.store.FetchDefinition(ctx, s.loc.SurveyID)
	if err != nil {
		s.logger.Warn("Failed to load survey definition", zap.Error(err))
		return s.fail(err, NoticeLoadFailed)
	}

	model, err := s.renderer.NewModel(def)
	if err != nil {
		s.logger.Warn("Failed to build survey model", zap.Error(err))
		return s.fail(err, NoticeLoadFailed)
	}
	if s.transform != nil {
		model.RegisterTextTransform(s.transform)
	}
	model.OnComplete(func(data client.AnswerSet) {
		_ = s.Complete(ctx, data)
	})

	s.mu.Lock()
	s.model = model
	s.state = LoadingAnswers
	s.mu.Unlock()

	s.logger.Info("Loading stored answers")
	answers, err := s.store.FetchAnswers(ctx, s.loc.SurveyID, s.loc.AnswerID)
	switch {
	case client.IsNotFound(err):
		s.logger.Info("No stored answers")
		answers = nil
	case err != nil:
		s.logger.Warn("Failed to load stored answers", zap.Error(err))
		return s.fail(err, NoticeLoadFailed)
	}

	keys := make([]string, 0, len(answers))
	for k := range answers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		model.ApplyAnswer(k, answers[k])
	}

	s.mu.Lock()
	s.state = Rendering
	s.mu.Unlock()
	s.logger.Info("Survey ready", zap.Int("prefilled", len(keys)))
	return nil
}

// Complete stores data, or the model's current answers when data is nil.
// A failed save leaves the session rendering so the respondent can try
// again.
func (s *AnsweringSession) Complete(ctx context.Context, data client.AnswerSet) error {
	s.mu.Lock()
	switch s.state {
	case Rendering, Completed:
	case Completing:
		s.mu.Unlock()
		return ErrBusy
	default:
		s.mu.Unlock()
		return ErrNotLoaded
	}
	model := s.model
	s.state = Completing
	s.mu.Unlock()

	if data == nil {
		data = model.Data()
	}

	s.logger.Info("Saving answers", zap.Int("answers", len(data)))
	if err := s.store.SaveAnswers(ctx, s.loc.SurveyID, s.loc.AnswerID, data); err != nil {
		s.logger.Warn("Failed to save answers", zap.Error(err))
		s.mu.Lock()
		s.state = Rendering
		s.lastErr = err
		s.mu.Unlock()
		s.notify(Notice{Kind: NoticeSaveFailed, Err: err})
		return err
	}

	s.mu.Lock()
	s.state = Completed
	s.lastErr = nil
	s.mu.Unlock()
	s.logger.Info("Saved answers")
	s.notify(Notice{Kind: NoticeSaved})
	return nil
}

func (s *AnsweringSession) fail(err error, kind NoticeKind) error {
	s.mu.Lock()
	s.state = Failed
	s.lastErr = err
	s.mu.Unlock()
	s.notify(Notice{Kind: kind, Err: err})
	return err
}

func (s *AnsweringSession) notify(n Notice) {
	if s.notifier != nil {
		s.notifier.Notify(n)
	}
}
