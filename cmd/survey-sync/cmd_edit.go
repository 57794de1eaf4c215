package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ONSdigital/sdx-survey-sync/internal/session"
	"github.com/ONSdigital/sdx-survey-sync/internal/widget"
)

func runEdit(cmd *cobra.Command, args []string) error {
	c, loc, err := newStoreClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	out := cmd.OutOrStdout()
	editor, err := widget.NewTextEditor(editorCommand,
		widget.WithHeader(fmt.Sprintf("survey %s: save and quit to upload", loc.SurveyID)),
		// The editor program reads the terminal directly.
		widget.WithStdio(os.Stdin, out, cmd.ErrOrStderr()),
	)
	if err != nil {
		return err
	}
	defer editor.Close()

	notifier := widget.PrintNotifier{Out: out, Err: cmd.ErrOrStderr()}
	s := session.NewEditing(c, editor, notifier, loc, logger)
	if err := s.Start(ctx); err != nil {
		return err
	}

	prompt := bufio.NewReader(cmd.InOrStdin())
	for {
		// Each editor exit saves through the session.
		if err := editor.Edit(ctx); err != nil {
			return err
		}
		logger.Debug("Edit finished", zap.Stringer("state", s.State()))
		if !confirm(prompt, out, "Edit again? [y/N] ") {
			break
		}
	}

	if s.State() == session.Failed {
		return s.Err()
	}
	return nil
}

// confirm asks a yes/no question; anything but y or yes is no.
func confirm(r *bufio.Reader, w io.Writer, question string) bool {
	fmt.Fprint(w, question)
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
