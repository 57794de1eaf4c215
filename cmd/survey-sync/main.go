// Command survey-sync edits survey definitions and answers surveys held by a
// survey store.
package main

import (
	"context"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ONSdigital/sdx-survey-sync/internal/signals"
)

var (
	// Global flags
	verbose       bool
	configPath    string
	baseURL       string
	accessToken   string
	link          string
	surveyID      string
	answerID      string
	editorCommand string
	timeout       time.Duration

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "survey-sync",
	Short: "Edit and answer surveys held by a survey store",
	Long: `survey-sync talks to a survey store over HTTP.

The survey (and, when answering, the answer set) is named either with
--survey/--answer or with --link, a survey page URL such as

  https://surveys.example.com/survey?survey=s1&answer=a1&access_token=...

When --link is used without --url, the store is assumed to live at the
link's scheme and host.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := applyConfigFile(cmd); err != nil {
			return err
		}

		// Initialize logger
		config := zap.NewProductionConfig()
		config.OutputPaths = []string{"stderr"}
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		} else {
			config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Print a survey definition",
	Args:  cobra.NoArgs,
	RunE:  runGet,
}

var propertiesCmd = &cobra.Command{
	Use:   "properties",
	Short: "List the extra question properties available for a survey",
	Args:  cobra.NoArgs,
	RunE:  runProperties,
}

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit a survey definition in a text editor",
	Long: `Fetches the survey definition and opens it in an editor ($VISUAL, $EDITOR
or --editor). Each time the editor exits the definition is uploaded,
replacing the stored one. Comments and trailing commas are allowed.`,
	Args: cobra.NoArgs,
	RunE: runEdit,
}

var answerCmd = &cobra.Command{
	Use:   "answer",
	Short: "Answer a survey",
	Long: `Loads the survey and any answers already stored, applies the answers
given with --file and --set, shows the result and stores it.

Example:
  survey-sync answer --survey s1 --answer a1 --set q1=yes --set q2=3`,
	Args: cobra.NoArgs,
	RunE: runAnswer,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "", "Survey store base URL")
	rootCmd.PersistentFlags().StringVar(&accessToken, "access-token", "", "Access token sent with every request")
	rootCmd.PersistentFlags().StringVar(&link, "link", "", "Survey page URL carrying survey, answer and access_token parameters")
	rootCmd.PersistentFlags().StringVarP(&surveyID, "survey", "s", "", "Survey identifier")
	rootCmd.PersistentFlags().StringVarP(&answerID, "answer", "a", "", "Answer set identifier")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Per-request timeout (0 for none)")

	editCmd.Flags().StringVar(&editorCommand, "editor", "", "Editor command (default: $VISUAL, $EDITOR, vi)")

	answerCmd.Flags().StringArrayVar(&answerSets, "set", nil, "Answer as key=value; JSON values are decoded (repeatable)")
	answerCmd.Flags().StringVar(&answersFile, "file", "", "JSON file of answers to apply")

	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(propertiesCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(answerCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// commandContext returns a context cancelled when the command is interrupted.
func commandContext(cmd *cobra.Command) (context.Context, func()) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	stop := signals.HandleFunc(func(sig os.Signal) {
		logger.Debug("Interrupted", zap.String("signal", sig.String()))
		cancel()
	}, os.Interrupt, syscall.SIGTERM)
	return ctx, func() {
		stop()
		cancel()
	}
}
