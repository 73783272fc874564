package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/refasm/pkg/cli/config"
	"github.com/m-mizutani/refasm/pkg/domain/types"
	"github.com/m-mizutani/refasm/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// Run runs the CLI application
func Run(ctx context.Context, args []string) error {
	var (
		loggerCfg  config.Logger
		sentryCfg  config.Sentry
		installCfg config.Install
		nugetCfg   config.NuGet

		logger        *slog.Logger
		sentryEnabled bool
	)

	var flags []cli.Flag
	flags = append(flags, installCfg.Flags()...)
	flags = append(flags, nugetCfg.Flags()...)
	flags = append(flags, loggerCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	app := &cli.Command{
		Name:    "refasm",
		Usage:   ".NET Framework reference assemblies downloader",
		Version: types.Version,
		Flags:   flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			var err error
			logger, err = loggerCfg.Configure()
			if err != nil {
				return nil, err
			}
			logger = logger.With("run_id", uuid.NewString())

			sentryEnabled, err = sentryCfg.Configure()
			if err != nil {
				return nil, err
			}

			slog.SetDefault(logger)
			ctx = ctxlog.With(ctx, logger)
			return ctx, nil
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return runInstall(ctx, c, &installCfg, &nugetCfg)
		},
	}

	if err := app.Run(ctx, args); err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("CLI execution failed", slog.Any("error", err))

		if sentryEnabled {
			sentry.CaptureException(err)
			sentry.Flush(2 * time.Second)
		}
		return err
	}

	return nil
}

func runInstall(ctx context.Context, c *cli.Command, installCfg *config.Install, nugetCfg *config.NuGet) error {
	logger := ctxlog.From(ctx)

	if installCfg.ConfigFile != "" {
		f, err := config.LoadFile(installCfg.ConfigFile)
		if err != nil {
			return err
		}
		installCfg.ApplyFile(f, c.IsSet)
		nugetCfg.ApplyFile(f, c.IsSet)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	uc := usecase.NewInstall(
		usecase.WithNuGet(nugetCfg.Configure()),
	)

	result, err := uc.Install(ctx, installCfg.Request())
	if err != nil {
		return err
	}

	if result.Skipped {
		return nil
	}

	for _, fw := range result.Frameworks {
		logger.Info("Reference assemblies ready",
			"tfm", fw.TFM,
			"dir", fw.TargetDir,
			"file_count", fw.Files,
		)
	}
	return nil
}
