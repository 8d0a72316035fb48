package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/f2edit/editor/internal/config"
)

const defaultConfigPath = "f2edit.toml"

func main() {
	if err := run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	a := &app{}
	return a.command().Run(ctx, args)
}

func (a *app) command() *cli.Command {
	return &cli.Command{
		Name:  "f2edit",
		Usage: "Inspect and edit Fallout 2 save games",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "TOML config file",
				Value:   defaultConfigPath,
				Sources: cli.EnvVars("F2EDIT_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "save",
				Aliases: []string{"s"},
				Usage:   "Save slot directory (bare names resolve under [saves] dir)",
			},
		},
		Before: a.setup,
		After: func(ctx context.Context, cmd *cli.Command) error {
			if a.log != nil {
				_ = a.log.Sync()
			}
			return nil
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			a.slotsCmd(),
			a.infoCmd(),
			a.listCmd("stats", "List the seven primary stats"),
			a.listCmd("skills", "List skill values"),
			a.listCmd("perks", "List perk ranks"),
			a.inventoryCmd(),
			a.getCmd(),
			a.setCmd(),
			a.scriptCmd(),
			a.shellCmd(),
			a.dumpCmd(),
			a.historyCmd(),
			a.restoreCmd(),
			convertCmd(),
		},
	}
}

// setup loads the config and builds the logger before any command runs.
// Only an explicitly named config file has to exist.
func (a *app) setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")
	var (
		cfg *config.Config
		err error
	)
	if cmd.IsSet("config") {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadOrDefault(path)
	}
	if err != nil {
		return ctx, fmt.Errorf("load config: %w", err)
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return ctx, fmt.Errorf("init logger: %w", err)
	}
	a.cfg = cfg
	a.log = log
	return ctx, nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	// Command output goes to stdout; keep logs off it.
	zapCfg.OutputPaths = []string{"stderr"}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
