package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ONSdigital/sdx-survey-sync/internal/client"
	"github.com/ONSdigital/sdx-survey-sync/internal/markdown"
	"github.com/ONSdigital/sdx-survey-sync/internal/session"
	"github.com/ONSdigital/sdx-survey-sync/internal/widget"
)

var (
	answerSets  []string
	answersFile string
)

type answerArg struct {
	key, value string
}

func parseAnswerArgs(sets []string) ([]answerArg, error) {
	parsed := make([]answerArg, 0, len(sets))
	for _, s := range sets {
		key, value, ok := strings.Cut(s, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid --set %q: want key=value", s)
		}
		parsed = append(parsed, answerArg{key: strings.TrimSpace(key), value: value})
	}
	return parsed, nil
}

func readAnswersFile(path string) (client.AnswerSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read answers file: %w", err)
	}
	var answers client.AnswerSet
	if err := json.Unmarshal(data, &answers); err != nil {
		return nil, fmt.Errorf("answers file %s is not a JSON object: %w", path, err)
	}
	return answers, nil
}

func runAnswer(cmd *cobra.Command, args []string) error {
	// Local input is checked before anything is fetched.
	sets, err := parseAnswerArgs(answerSets)
	if err != nil {
		return err
	}
	var fromFile client.AnswerSet
	if answersFile != "" {
		if fromFile, err = readAnswersFile(answersFile); err != nil {
			return err
		}
	}

	c, loc, err := newStoreClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	out := cmd.OutOrStdout()
	notifier := widget.PrintNotifier{Out: out, Err: cmd.ErrOrStderr()}
	s := session.NewAnswering(c, widget.Renderer{}, notifier, markdown.InlineHTML, loc, logger)
	if err := s.Start(ctx); err != nil {
		return err
	}

	model, ok := s.Model().(*widget.AnswerModel)
	if !ok {
		return errors.New("unexpected survey model")
	}
	model.Merge(fromFile)
	for _, a := range sets {
		model.Set(a.key, a.value)
	}
	if err := model.Render(out); err != nil {
		return err
	}

	model.Complete()
	if s.State() != session.Completed {
		return s.Err()
	}
	return nil
}
