package main

import (
	"errors"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"github.com/elcuervo/otq/internal/query"
	"github.com/elcuervo/otq/internal/tasks"
)

// session ties a vault to the queries run against it. The TUI and the watch
// loop rerun it whenever the vault changes.
type session struct {
	Name     string
	vault    *Vault
	source   querySource
	settings query.Settings
	now      func() time.Time
	log      zerolog.Logger
}

func (s *session) options() []query.Option {
	opts := []query.Option{
		query.WithSettings(s.settings),
		query.WithClock(s.now),
		query.WithLogger(s.log),
	}

	if s.source.Path != "" {
		opts = append(opts, query.WithFilePath(s.source.Path))
	}

	return opts
}

// sections compiles the query blocks and applies them to all
func (s *session) sections(all []*tasks.Task) ([]QuerySection, error) {
	blocks, err := s.source.blocks()
	if err != nil {
		return nil, err
	}

	return buildSections(blocks, all, s.options()), nil
}

// load reads the vault. Files that failed to parse are logged and skipped.
func (s *session) load() ([]*tasks.Task, error) {
	all, err := s.vault.Load(nil)
	return s.tolerate(all, err)
}

func (s *session) tolerate(all []*tasks.Task, err error) ([]*tasks.Task, error) {
	var merr *multierror.Error
	if errors.As(err, &merr) {
		s.log.Warn().Int("files", merr.Len()).Msg("some files could not be parsed")
		return all, nil
	}

	return all, err
}

// run loads the vault and applies every query block to it
func (s *session) run() ([]QuerySection, error) {
	all, err := s.load()
	if err != nil {
		return nil, err
	}

	return s.sections(all)
}

func (s *session) renderOptions(plain bool) renderOptions {
	return renderOptions{
		VaultPath: s.vault.Root,
		Plain:     plain,
		Now:       s.now(),
	}
}
