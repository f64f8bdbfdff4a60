package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/app/bootstrap"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/application"
	"go.uber.org/automaxprocs/maxprocs"
)

const programName = "governancectl"

var (
	globalFlags = struct {
		debug bool
	}{}
	configFile string
)

func slogPrintf(format string, v ...any) {
	slog.Info(fmt.Sprintf(format, v...),
		"component", programName,
	)
}

func buildRuntime(ctx context.Context) (*bootstrap.Runtime, error) {
	if _, err := maxprocs.Set(maxprocs.Logger(slogPrintf)); err != nil {
		return nil, fmt.Errorf("set maxprocs: %w", err)
	}
	cfg, err := bootstrap.LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if globalFlags.debug {
		cfg.Debug = true
	}
	return bootstrap.NewRuntimeWithConfig(ctx, cfg)
}

func apiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "api",
		Short: "Serve the HTTP and gRPC API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			runtime, err := buildRuntime(cmd.Context())
			if err != nil {
				return err
			}
			return runtime.RunAPI(cmd.Context())
		},
	}
}

func workerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the outbox relay, event consumer and scheduled governance jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			runtime, err := buildRuntime(cmd.Context())
			if err != nil {
				return err
			}
			return runtime.RunWorker(cmd.Context())
		},
	}
}

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			runtime, err := buildRuntime(cmd.Context())
			if err != nil {
				return err
			}
			runtime.Close(cmd.Context())
			return nil
		},
	}
}

func jobCommand(use, short, job string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runtime, err := buildRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer runtime.Close(context.Background())
			report, err := runtime.RunJob(cmd.Context(), job)
			if report != nil {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if encErr := enc.Encode(report); encErr != nil {
					return encErr
				}
			}
			return err
		},
	}
}

func main() {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Community governance service and batch jobs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().
		BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")
	rootCmd.PersistentFlags().
		StringVar(&configFile, "config", "configs/default.yaml", "path to config file")

	rootCmd.AddCommand(apiCommand())
	rootCmd.AddCommand(workerCommand())
	rootCmd.AddCommand(migrateCommand())
	rootCmd.AddCommand(jobCommand("analyze-behavior", "Score every recently active professional once", application.JobAnalyzeBehavior))
	rootCmd.AddCommand(jobCommand("rotate-committee", "Rotate committees for due and newly eligible chapters", application.JobRotateCommittee))
	rootCmd.AddCommand(jobCommand("process-expulsion-votes", "Auto-expire overdue reviews and remind silent committee members", application.JobProcessExpulsionVotes))

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		slog.Error(err.Error(), "component", programName)
		os.Exit(1)
	}
}
