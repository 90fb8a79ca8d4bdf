package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/elcuervo/otq/internal/logging"
)

var (
	// Populated at build time via -ldflags
	version = "dev"
	commit  = "HEAD"
)

func build() string {
	v, c := version, commit

	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				if s.Key == "vcs.revision" {
					c = s.Value
				}
			}
		}
	}

	if len(c) > 7 {
		c = c[:7]
	}

	return fmt.Sprintf("%s (%s)", v, c)
}

// Flags holds the global flags plus what the Before hook loads from them
type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	Vault      string
	Profile    string
	Theme      string

	Config Config
	Log    zerolog.Logger
}

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func main() {
	var (
		flags     = &Flags{Log: zerolog.Nop()}
		logCloser func()
	)

	app := &cli.Command{
		Name:      "otq",
		Usage:     "Run Obsidian Tasks queries against a vault",
		UsageText: "otq [global options] [query-file.md | inline query]",
		Description: `otq finds every task in an Obsidian vault and runs Tasks queries over them.

The query is a note holding one or more ` + "```tasks" + ` blocks, or inline text where
"\n" separates instructions. Without a query every task is shown.

Example:
  otq --vault ~/notes 'not done\ngroup by due'`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "vault",
				Usage:       "path to the Obsidian vault",
				Sources:     cli.EnvVars("OTQ_VAULT"),
				Destination: &flags.Vault,
			},
			&cli.StringFlag{
				Name:        "profile",
				Aliases:     []string{"p"},
				Usage:       "profile name from the config file",
				Destination: &flags.Profile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("OTQ_CONFIG"),
				Value:       defaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "theme",
				Usage:       "glamour style used to render tasks",
				Destination: &flags.Theme,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, disabled)",
				Sources:     cli.EnvVars("OTQ_LOG_LEVEL"),
				Value:       "warn",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "write logs to this file instead of stderr",
				Sources:     cli.EnvVars("OTQ_LOG_FILE"),
				Destination: &flags.LogFile,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logger, closer, err := logging.New(flags.LogLevel, flags.LogFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			flags.Log = logger
			logCloser = closer

			cfg, err := loadConfig(flags.ConfigPath)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			theme := flags.Theme
			if theme == "" {
				theme = cfg.Theme
			}
			initRenderer(theme)

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	showCmd := NewShowCmd(flags)

	app = NewRunCmd(flags).Register(app)
	app = NewExplainCmd(flags).Register(app)
	app = NewCheckCmd(flags).Register(app)

	app.Flags = append(app.Flags, showCmd.Flags()...)
	app.Action = showCmd.Run

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
