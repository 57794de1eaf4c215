package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/ONSdigital/sdx-survey-sync/internal/api"
	"github.com/ONSdigital/sdx-survey-sync/internal/store"
)

// maxDocumentSize bounds the body of a PUT.
const maxDocumentSize = 4 << 20

// server serves survey definitions and answer sets.
type server struct {
	repo       store.Repository
	auth       *tokenValidator
	notifier   AnswerNotifier
	properties *propertiesProxy
	query      http.Handler
	health     http.Handler
	logger     *zap.Logger
}

func (s *server) router() *mux.Router {
	// Identifiers are opaque and may contain escaped slashes, so routes match
	// the encoded path and handlers unescape the variables.
	r := mux.NewRouter().UseEncodedPath()
	if s.health != nil {
		r.Handle("/healthcheck", s.health).Methods("GET")
	}

	protected := r.NewRoute().Subrouter()
	protected.Use(s.auth.Middleware)
	protected.HandleFunc("/surveys", s.ListSurveysHandler).Methods("GET")
	protected.HandleFunc("/surveys/{survey}", s.GetSurveyHandler).Methods("GET")
	protected.HandleFunc("/surveys/{survey}", s.PutSurveyHandler).Methods("PUT")
	protected.HandleFunc("/surveys/{survey}/answers", s.ListAnswersHandler).Methods("GET")
	protected.HandleFunc("/surveys/{survey}/answers/{answer}", s.GetAnswersHandler).Methods("GET")
	protected.HandleFunc("/surveys/{survey}/answers/{answer}", s.PutAnswersHandler).Methods("PUT")
	protected.HandleFunc("/properties.json", s.properties.ServeHTTP).Methods("GET")
	if s.query != nil {
		protected.Handle("/graphql", s.query).Methods("GET", "POST")
	}
	return r
}

// ListSurveysHandler responds with the identifiers of every stored survey.
func (s *server) ListSurveysHandler(rw http.ResponseWriter, r *http.Request) {
	ids, err := s.repo.ListSurveys(r.Context())
	if err != nil {
		s.logger.Error("Failed to list surveys", zap.Error(err))
		api.WriteProblemResponse(api.Problem{Title: "Failed to list surveys", Status: http.StatusInternalServerError}, rw)
		return
	}
	api.WriteJSON(rw, http.StatusOK, map[string][]string{"surveys": ids})
}

// ListAnswersHandler responds with the identifiers of the answer sets filed
// against a survey.
func (s *server) ListAnswersHandler(rw http.ResponseWriter, r *http.Request) {
	surveyID := pathVar(r, "survey")
	log := s.logger.With(zap.String("survey_id", surveyID))

	exists, err := s.repo.SurveyExists(r.Context(), surveyID)
	if err != nil {
		log.Error("Failed to look up survey", zap.Error(err))
		api.WriteProblemResponse(api.Problem{Title: "Failed to look up survey", Status: http.StatusInternalServerError}, rw)
		return
	}
	if !exists {
		api.WriteProblemResponse(api.Problem{Title: "Survey not found", Status: http.StatusNotFound}, rw)
		return
	}

	ids, err := s.repo.ListAnswers(r.Context(), surveyID)
	if err != nil {
		log.Error("Failed to list answers", zap.Error(err))
		api.WriteProblemResponse(api.Problem{Title: "Failed to list answers", Status: http.StatusInternalServerError}, rw)
		return
	}
	api.WriteJSON(rw, http.StatusOK, map[string][]string{"answers": ids})
}

// GetSurveyHandler responds with the stored survey definition.
func (s *server) GetSurveyHandler(rw http.ResponseWriter, r *http.Request) {
	surveyID := pathVar(r, "survey")

	data, err := s.repo.GetSurvey(r.Context(), surveyID)
	if errors.Is(err, store.ErrNotFound) {
		api.WriteProblemResponse(api.Problem{Title: "Survey not found", Status: http.StatusNotFound}, rw)
		return
	}
	if err != nil {
		s.logger.Error("Failed to fetch survey", zap.String("survey_id", surveyID), zap.Error(err))
		api.WriteProblemResponse(api.Problem{Title: "Failed to fetch survey", Status: http.StatusInternalServerError}, rw)
		return
	}
	api.WriteJSON(rw, http.StatusOK, data)
}

// PutSurveyHandler replaces the stored survey definition.
func (s *server) PutSurveyHandler(rw http.ResponseWriter, r *http.Request) {
	surveyID := pathVar(r, "survey")

	body, ok := readDocument(rw, r)
	if !ok {
		return
	}
	if err := s.repo.PutSurvey(r.Context(), surveyID, body); err != nil {
		s.logger.Error("Failed to store survey", zap.String("survey_id", surveyID), zap.Error(err))
		api.WriteProblemResponse(api.Problem{Title: "Failed to store survey", Status: http.StatusInternalServerError}, rw)
		return
	}
	s.logger.Info("Stored survey", zap.String("survey_id", surveyID), zap.Int("bytes", len(body)))
	rw.WriteHeader(http.StatusNoContent)
}

// GetAnswersHandler responds with a stored answer set.
func (s *server) GetAnswersHandler(rw http.ResponseWriter, r *http.Request) {
	surveyID, answerID := pathVar(r, "survey"), pathVar(r, "answer")

	data, err := s.repo.GetAnswers(r.Context(), surveyID, answerID)
	if errors.Is(err, store.ErrNotFound) {
		api.WriteProblemResponse(api.Problem{Title: "Answers not found", Status: http.StatusNotFound}, rw)
		return
	}
	if err != nil {
		s.logger.Error("Failed to fetch answers", zap.String("survey_id", surveyID), zap.String("answer_id", answerID), zap.Error(err))
		api.WriteProblemResponse(api.Problem{Title: "Failed to fetch answers", Status: http.StatusInternalServerError}, rw)
		return
	}
	api.WriteJSON(rw, http.StatusOK, data)
}

// PutAnswersHandler replaces a stored answer set. The survey must exist.
// Once stored, a notification is published; a failed publish is logged and
// does not fail the request.
func (s *server) PutAnswersHandler(rw http.ResponseWriter, r *http.Request) {
	surveyID, answerID := pathVar(r, "survey"), pathVar(r, "answer")
	log := s.logger.With(zap.String("survey_id", surveyID), zap.String("answer_id", answerID))

	exists, err := s.repo.SurveyExists(r.Context(), surveyID)
	if err != nil {
		log.Error("Failed to look up survey", zap.Error(err))
		api.WriteProblemResponse(api.Problem{Title: "Failed to look up survey", Status: http.StatusInternalServerError}, rw)
		return
	}
	if !exists {
		api.WriteProblemResponse(api.Problem{Title: "Survey not found", Status: http.StatusNotFound}, rw)
		return
	}

	body, ok := readDocument(rw, r)
	if !ok {
		return
	}
	var answers map[string]interface{}
	if err := json.Unmarshal(body, &answers); err != nil {
		api.WriteProblemResponse(api.Problem{
			Title:  "Answers must be a JSON object",
			Status: http.StatusBadRequest,
		}, rw)
		return
	}

	if err := s.repo.PutAnswers(r.Context(), surveyID, answerID, body); err != nil {
		log.Error("Failed to store answers", zap.Error(err))
		api.WriteProblemResponse(api.Problem{Title: "Failed to store answers", Status: http.StatusInternalServerError}, rw)
		return
	}
	log.Info("Stored answers", zap.Int("answers", len(answers)))
	rw.WriteHeader(http.StatusNoContent)

	if s.notifier != nil {
		if err := s.notifier.AnswersSaved(surveyID, answerID); err != nil {
			log.Error("Failed to publish answers notification", zap.Error(err))
		}
	}
}

func pathVar(r *http.Request, name string) string {
	v := mux.Vars(r)[name]
	if unescaped, err := url.PathUnescape(v); err == nil {
		return unescaped
	}
	return v
}

// readDocument reads a JSON request body, writing a problem response and
// returning false when it is unusable.
func readDocument(rw http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(rw, r.Body, maxDocumentSize))
	if err != nil {
		api.WriteProblemResponse(api.Problem{
			Title:  "Request body unreadable",
			Status: http.StatusBadRequest,
			Detail: err.Error(),
		}, rw)
		return nil, false
	}
	if len(body) == 0 {
		api.WriteProblemResponse(api.Problem{Title: "Request body empty", Status: http.StatusBadRequest}, rw)
		return nil, false
	}
	if !json.Valid(body) {
		api.WriteProblemResponse(api.Problem{Title: "Request body is not valid JSON", Status: http.StatusBadRequest}, rw)
		return nil, false
	}
	return body, true
}
