package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"vidlingo/internal/daemon"
	"vidlingo/internal/logging"
	"vidlingo/internal/preflight"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var skipLLMCheck bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the daemon: intake API and translation pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), ctx, cmd.ErrOrStderr(), !skipLLMCheck)
		},
	}
	cmd.Flags().BoolVar(&skipLLMCheck, "skip-llm-check", false, "Do not spend a request verifying the LLM at startup")
	return cmd
}

func runServe(cmdCtx context.Context, ctx *commandContext, stderr io.Writer, withLLM bool) error {
	if cmdCtx == nil {
		cmdCtx = context.Background()
	}
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateDaemon(); err != nil {
		return err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	results := preflight.RunAll(signalCtx, cfg, withLLM)
	for _, r := range results {
		switch {
		case r.Passed:
			logger.Info("preflight passed", logging.String("check", r.Name), logging.String("detail", r.Detail))
		case r.Advisory:
			logging.WarnWithContext(logger, "preflight advisory", "preflight_advisory",
				logging.String("check", r.Name),
				logging.String("detail", r.Detail),
				logging.String(logging.FieldImpact, "jobs for this target will be rejected"),
			)
		default:
			logger.Error("preflight failed", logging.String("check", r.Name), logging.String("detail", r.Detail))
		}
	}
	if failed := preflight.Failed(results); len(failed) > 0 {
		for _, r := range failed {
			fmt.Fprintf(stderr, "preflight: %s: %s\n", r.Name, r.Detail)
		}
		return fmt.Errorf("%d preflight check(s) failed", len(failed))
	}

	d, err := daemon.Build(signalCtx, cfg, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	<-signalCtx.Done()
	logger.Info("vidlingo daemon shutting down")
	return nil
}
