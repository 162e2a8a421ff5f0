package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"example.com/ai-finance-coach/backend/internal/ai"
	"example.com/ai-finance-coach/backend/internal/config"
	"example.com/ai-finance-coach/backend/internal/logging"
	"example.com/ai-finance-coach/backend/internal/orchestrator"
	"example.com/ai-finance-coach/backend/internal/report"
)

// app держит зависимости, которые команды получают после PersistentPreRunE.
type app struct {
	log          *logrus.Logger
	orchestrator *orchestrator.Orchestrator
	cleanup      func()

	mode   string
	format string
	output string
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:          "finwise",
		Short:        "Offline personal finance analysis",
		Long:         "finwise runs the budget, savings and debt analysis on a JSON/YAML profile or a CSV transaction export.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.Context(), cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.cleanup != nil {
				a.cleanup()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&a.mode, "mode", string(orchestrator.ModeAuto), "analysis mode: auto|ai|basic")
	cmd.PersistentFlags().StringVar(&a.format, "format", string(report.FormatJSON), "output format: json|yaml|csv")
	cmd.PersistentFlags().StringVarP(&a.output, "output", "o", "", "write the report to a file instead of stdout")

	cmd.AddCommand(newAnalyzeCmd(a), newImportCmd(a), newStatusCmd(a))
	return cmd
}

func (a *app) init(ctx context.Context, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.LoadOffline()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	a.log = logging.NewWithOutput(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())

	pipeline, cleanup, err := ai.Setup(ctx, cfg.AI, ai.WithLogger(a.log))
	if err != nil {
		return fmt.Errorf("initialise ai pipeline: %w", err)
	}
	a.cleanup = cleanup

	a.orchestrator = orchestrator.New(pipeline,
		orchestrator.WithTimeout(cfg.AI.PipelineTimeout),
		orchestrator.WithLogger(a.log),
	)
	return nil
}
