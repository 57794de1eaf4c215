package main

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"github.com/ONSdigital/sdx-survey-sync/internal/rabbit"
)

// AnswerNotifier announces that an answer set was stored.
type AnswerNotifier interface {
	AnswersSaved(surveyID, answerID string) error
}

// answersNotification is the body of an answers-saved message.
type answersNotification struct {
	Survey string `json:"survey"`
	Answer string `json:"answer"`
}

// topicSafe keeps identifiers from adding words or wildcards to a topic.
var topicSafe = strings.NewReplacer(".", "_", "*", "_", "#", "_")

// answersTopic is the routing key of an answers-saved message:
// survey.answers.<survey_id>
func answersTopic(surveyID string) string {
	return "survey.answers." + topicSafe.Replace(surveyID)
}

// rabbitNotifier publishes answers-saved messages to a topic exchange.
type rabbitNotifier struct {
	conn     *amqp.Connection
	exchange string
	logger   *zap.Logger
}

func (n *rabbitNotifier) AnswersSaved(surveyID, answerID string) error {
	if n.conn == nil {
		return errors.New("No connection to rabbit")
	}
	body, err := json.Marshal(answersNotification{Survey: surveyID, Answer: answerID})
	if err != nil {
		return err
	}

	// Get a fresh channel for each publish; channels can't be shared between
	// concurrent publishers.
	ch, err := n.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	topic := answersTopic(surveyID)
	if err := rabbit.PublishJSON(n.exchange, topic, body, ch); err != nil {
		return err
	}
	n.logger.Info("Published answers notification", zap.String("topic", topic))
	return nil
}
