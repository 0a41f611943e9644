package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"doc_detector/internal/aidetect"
	"doc_detector/internal/config"
	"doc_detector/internal/hybrid"
	"doc_detector/internal/logging"
	"doc_detector/internal/workspace"
)

const (
	exitAnalysis  = 2
	exitJSONWrite = 3
)

// usesWorkspace marks commands whose defaults come from the workspace settings.json.
const usesWorkspace = "aidd/workspace"

var workspaceAnnotation = map[string]string{usesWorkspace: "true"}

// exitError carries the process exit code for a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// app is the per-invocation state shared by subcommands.
type app struct {
	settings  *config.Settings
	logger    *slog.Logger
	logCloser io.Closer
}

func newRootCmd(version string) *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:           "aidd",
		Short:         "Heuristic detection of AI-generated documents",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.logCloser != nil {
				return a.logCloser.Close()
			}
			return nil
		},
	}
	config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		newAnalyzeCmd(a),
		newBatchCmd(a),
		newPresetsCmd(),
		newHistoryCmd(a),
		newServeCmd(a),
		newMCPCmd(a, version),
		newVersionCmd(version),
	)
	return rootCmd
}

func (a *app) init(cmd *cobra.Command) error {
	settings, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	logger, closer, err := logging.New(settings.Logging())
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	a.logger = logger
	a.logCloser = closer

	if cmd.Annotations[usesWorkspace] != "" {
		a.applyWorkspaceDefaults(cmd, settings)
	}
	a.settings = settings
	return nil
}

// applyWorkspaceDefaults lets settings.json supply the preset and model when
// neither a flag nor the environment chose one.
func (a *app) applyWorkspaceDefaults(cmd *cobra.Command, s *config.Settings) {
	root, err := workspace.EnsureDefault()
	if err != nil {
		a.logger.Debug("workspace unavailable, using built-in defaults", "error", err)
		return
	}
	ws, err := workspace.LoadSettings(root)
	if err != nil {
		a.logger.Debug("workspace settings unreadable, using built-in defaults", "root", root, "error", err)
		return
	}
	if !cmd.Flags().Changed("preset") && s.Preset == aidetect.PresetBalanced && ws.DefaultPreset != "" {
		if _, err := aidetect.Preset(ws.DefaultPreset); err == nil {
			s.Preset = ws.DefaultPreset
		}
	}
	if s.Hybrid.Model == "" && s.Hybrid.Provider == hybrid.ProviderOllama {
		s.Hybrid.Model = ws.DefaultModel
	}
}

// analyzer returns a hybrid-capable analyzer when hybrid mode is enabled.
func (a *app) analyzer() (*hybrid.Analyzer, error) {
	scorer, err := a.scorer()
	if err != nil {
		return nil, err
	}
	return hybrid.NewAnalyzer(scorer, a.settings.HybridSettings(), a.logger), nil
}

func (a *app) storePath() (string, error) {
	if a.settings.Store.Path != "" {
		return a.settings.Store.Path, nil
	}
	root, err := workspace.EnsureDefault()
	if err != nil {
		return "", err
	}
	return workspace.StorePath(root), nil
}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "aidd %s\n", version)
			return nil
		},
	}
}
