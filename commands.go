package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/elcuervo/otq/internal/logging"
	"github.com/elcuervo/otq/internal/query"
	"github.com/elcuervo/otq/internal/tasks"
)

var ErrNoVault = errors.New("no vault given: use --vault or set a profile in the config file")

// target is what a command runs against, after flags, profile and arguments
// are resolved
type target struct {
	Name      string
	VaultPath string
	Exclude   []string
	Source    querySource
}

func resolveTarget(flags *Flags, arg string) (target, error) {
	var t target

	name, profile, err := selectProfile(flags.Profile, flags.Config)
	if err != nil {
		return t, err
	}
	t.Name = name

	switch {
	case flags.Vault != "":
		vaultPath, err := resolveVaultPath(flags.Vault)
		if err != nil {
			return t, &ProfileError{Field: "vault", Err: err}
		}
		if err := validateVaultExists(name, vaultPath); err != nil {
			return t, err
		}
		t.VaultPath = vaultPath

		if profile != nil {
			t.Exclude = profile.Exclude
			text, isFile := resolveQuery(profile.Query, vaultPath)
			t.Source = querySource{Text: text, IsFile: isFile}
		}

	case profile != nil:
		resolved, err := resolveProfilePaths(name, *profile)
		if err != nil {
			return t, err
		}
		t.VaultPath = resolved.VaultPath
		t.Exclude = resolved.Exclude
		t.Source = querySource{Text: resolved.Query, IsFile: resolved.QueryIsFile}
	}

	if arg != "" {
		t.Source = argumentSource(arg, t.VaultPath)
	}

	if t.Source.IsFile {
		t.Source.Path = notePath(t.VaultPath, t.Source.Text)
	}

	return t, nil
}

// argumentSource treats arg as a note when it names an existing file, relative
// to the working directory first and the vault second
func argumentSource(arg, vaultPath string) querySource {
	if expanded, err := expandPath(arg); err == nil {
		if info, err := os.Stat(expanded); err == nil && !info.IsDir() {
			if abs, err := filepath.Abs(expanded); err == nil {
				expanded = abs
			}
			return querySource{Text: expanded, IsFile: true}
		}
	}

	text, isFile := resolveQuery(arg, vaultPath)
	return querySource{Text: text, IsFile: isFile}
}

// notePath is the query note's path as the vault sees it, slash separated.
// Notes outside the vault are known by their file name.
func notePath(vaultPath, file string) string {
	if vaultPath != "" {
		if rel, err := filepath.Rel(vaultPath, file); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.Base(file)
}

func newSession(flags *Flags, t target) (*session, error) {
	if t.VaultPath == "" {
		return nil, ErrNoVault
	}

	registry, warnings := statusRegistry(flags.Config)
	for _, w := range warnings {
		flags.Log.Warn().Msg(w)
	}

	parser := tasks.LineParser{
		GlobalFilter: strings.TrimSpace(flags.Config.GlobalFilter),
		Statuses:     registry,
	}

	return &session{
		Name:     t.Name,
		vault:    NewVault(t.VaultPath, t.Exclude, parser, logging.Component(flags.Log, "vault")),
		source:   t.Source,
		settings: flags.Config.Settings(),
		now:      time.Now,
		log:      logging.Component(flags.Log, "query"),
	}, nil
}

// writeSections prints the sections in the given format
func writeSections(w io.Writer, sections []QuerySection, format string, opts renderOptions) error {
	switch format {
	case "", "text":
		_, err := io.WriteString(w, renderSections(sections, opts))
		return err
	case "json":
		return writeJSON(w, sections)
	case "yaml":
		return writeYAML(w, sections)
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}
}

// watchLoop reruns render whenever a note in the vault changes, until ctx is
// done or the process is interrupted
func watchLoop(ctx context.Context, s *session, render func() error) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	watcher, err := NewWatcher(s.vault, s.log)
	if err != nil {
		return fmt.Errorf("watch vault: %w", err)
	}
	defer watcher.Close()

	watcher.Run(ctx, func() {
		if err := render(); err != nil {
			s.log.Error().Err(err).Msg("refresh failed")
		}
	})

	return nil
}

const clearScreen = "\x1b[H\x1b[2J"

// ShowCmd is the default action: the TUI on a terminal, text otherwise
type ShowCmd struct {
	flags *Flags

	list  bool
	watch bool
}

func NewShowCmd(flags *Flags) *ShowCmd {
	return &ShowCmd{flags: flags}
}

func (cmd *ShowCmd) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "list",
			Aliases:     []string{"l"},
			Usage:       "print the results instead of opening the interactive view",
			Destination: &cmd.list,
		},
		&cli.BoolFlag{
			Name:        "watch",
			Aliases:     []string{"w"},
			Usage:       "with --list, print again whenever the vault changes",
			Destination: &cmd.watch,
		},
	}
}

func (cmd *ShowCmd) Run(ctx context.Context, c *cli.Command) error {
	t, err := resolveTarget(cmd.flags, c.Args().First())
	if err != nil {
		return err
	}

	s, err := newSession(cmd.flags, t)
	if err != nil {
		return err
	}

	if cmd.list || !stdoutIsTerminal() {
		return printSections(ctx, s, "text", cmd.watch)
	}

	all, err := s.tolerate(RunWithLoader(s.vault))
	if err != nil {
		return fmt.Errorf("load vault: %w", err)
	}

	sections, err := s.sections(all)
	if err != nil {
		return err
	}

	watcher, err := NewWatcher(s.vault, s.log)
	if err != nil {
		s.log.Warn().Err(err).Msg("file watching disabled")
	} else {
		defer watcher.Close()
	}

	return runTUI(s, sections, watcher)
}

// printSections runs the session and prints it, once or on every change
func printSections(ctx context.Context, s *session, format string, watch bool) error {
	terminal := stdoutIsTerminal()

	render := func() error {
		sections, err := s.run()
		if err != nil {
			return err
		}

		if watch && terminal {
			fmt.Fprint(os.Stdout, clearScreen)
		}

		return writeSections(os.Stdout, sections, format, s.renderOptions(!terminal))
	}

	if err := render(); err != nil {
		return err
	}

	if !watch {
		return nil
	}

	return watchLoop(ctx, s, render)
}

// RunCmd prints query results in a machine or human readable format
type RunCmd struct {
	flags *Flags

	format string
	watch  bool
}

func NewRunCmd(flags *Flags) *RunCmd {
	return &RunCmd{flags: flags}
}

func (cmd *RunCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "run",
		Usage:     "Print the results of a query",
		UsageText: "otq run [--format text|json|yaml] [--watch] [query]",
		Description: `Runs every query block and prints the grouped tasks.

Text output is rendered markdown on a terminal and plain text otherwise.
JSON and YAML output list each block with its groups, tasks and counts.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "format",
				Aliases:     []string{"f"},
				Usage:       "output format: text, json or yaml",
				Value:       "text",
				Destination: &cmd.format,
			},
			&cli.BoolFlag{
				Name:        "watch",
				Aliases:     []string{"w"},
				Usage:       "print again whenever the vault changes",
				Destination: &cmd.watch,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *RunCmd) run(ctx context.Context, c *cli.Command) error {
	t, err := resolveTarget(cmd.flags, c.Args().First())
	if err != nil {
		return err
	}

	s, err := newSession(cmd.flags, t)
	if err != nil {
		return err
	}

	return printSections(ctx, s, cmd.format, cmd.watch)
}

// ExplainCmd prints what each query block does without touching the vault
type ExplainCmd struct {
	flags *Flags
}

func NewExplainCmd(flags *Flags) *ExplainCmd {
	return &ExplainCmd{flags: flags}
}

func (cmd *ExplainCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "explain",
		Usage:     "Describe a query in plain language",
		UsageText: "otq explain [query]",
		Action:    cmd.run,
	})

	return app
}

// compileBlocks builds the queries of a target the way a session would,
// without needing a vault
func compileBlocks(flags *Flags, t target) ([]QueryBlock, []*query.Query, error) {
	blocks, err := t.Source.blocks()
	if err != nil {
		return nil, nil, err
	}

	s := &session{source: t.Source, settings: flags.Config.Settings(), now: time.Now, log: flags.Log}
	queries := make([]*query.Query, len(blocks))
	for i, b := range blocks {
		queries[i] = query.ForBlock(b.Source, s.options()...)
	}

	return blocks, queries, nil
}

func (cmd *ExplainCmd) run(ctx context.Context, c *cli.Command) error {
	t, err := resolveTarget(cmd.flags, c.Args().First())
	if err != nil {
		// explaining does not need the vault
		if !errors.Is(err, ErrPathNotExist) {
			return err
		}
		t = target{Source: argumentSource(c.Args().First(), "")}
	}

	blocks, queries, err := compileBlocks(cmd.flags, t)
	if err != nil {
		return err
	}

	for i, q := range queries {
		if i > 0 {
			fmt.Println()
		}
		if blocks[i].Name != "" {
			fmt.Println("## " + blocks[i].Name)
			fmt.Println()
		}
		fmt.Print(q.ExplainQuery())
	}

	return nil
}

// CheckCmd reports query blocks that fail to parse
type CheckCmd struct {
	flags *Flags
}

func NewCheckCmd(flags *Flags) *CheckCmd {
	return &CheckCmd{flags: flags}
}

func (cmd *CheckCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "check",
		Usage:     "Validate the config file and every query block",
		UsageText: "otq check [query]",
		Action:    cmd.run,
	})

	return app
}

func (cmd *CheckCmd) run(ctx context.Context, c *cli.Command) error {
	t, err := resolveTarget(cmd.flags, c.Args().First())
	if err != nil {
		return err
	}

	blocks, queries, err := compileBlocks(cmd.flags, t)
	if err != nil {
		return err
	}

	failed := 0
	for i, q := range queries {
		name := blocks[i].Name
		if name == "" {
			name = fmt.Sprintf("block %d", i+1)
		}

		if q.Err() != nil {
			failed++
			fmt.Printf("%s: %s\n", name, q.Error())
			continue
		}
		fmt.Printf("%s: ok\n", name)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d queries have errors", failed, len(queries))
	}

	return nil
}
