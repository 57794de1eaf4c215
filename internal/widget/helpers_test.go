package widget

import (
	"context"

	"github.com/ONSdigital/sdx-survey-sync/internal/client"
	"github.com/ONSdigital/sdx-survey-sync/internal/locator"
)

type oneSurveyStore struct {
	def   client.Definition
	saved client.Definition
}

func (s *oneSurveyStore) FetchDefinition(context.Context, string) (client.Definition, error) {
	return s.def, nil
}

func (s *oneSurveyStore) SaveDefinition(_ context.Context, _ string, def client.Definition) error {
	s.saved = def
	return nil
}

func (s *oneSurveyStore) FetchAnswers(context.Context, string, string) (client.AnswerSet, error) {
	return client.AnswerSet{}, nil
}

func (s *oneSurveyStore) SaveAnswers(context.Context, string, string, client.AnswerSet) error {
	return nil
}

func locatorFor(surveyID string) locator.Locator {
	return locator.Locator{SurveyID: surveyID}
}
