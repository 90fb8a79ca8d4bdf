package main

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"github.com/elcuervo/otq/internal/tasks"
)

var (
	headingRe = regexp.MustCompile(`^#{1,6}\s+(.+?)\s*#*\s*$`)
	fenceRe   = regexp.MustCompile("^\\s*(```|~~~)")
)

// Vault is a directory of markdown notes. Parsed files are cached by mtime so
// a refresh only re-reads what changed.
type Vault struct {
	Root    string
	Exclude []string
	Parser  tasks.LineParser

	cache *TaskCache
	log   zerolog.Logger
}

func NewVault(root string, exclude []string, parser tasks.LineParser, log zerolog.Logger) *Vault {
	return &Vault{
		Root:    root,
		Exclude: exclude,
		Parser:  parser,
		cache:   NewTaskCache(),
		log:     log,
	}
}

// Files returns every markdown file in the vault that is not excluded
func (v *Vault) Files() ([]string, error) {
	return scanVault(v.Root, v.Exclude)
}

// Load parses every file, reporting progress after each one. Files that fail
// to parse are skipped and returned together as one error next to the tasks
// that did load.
func (v *Vault) Load(progress func(ScanProgress)) ([]*tasks.Task, error) {
	report := func(p ScanProgress) {
		if progress != nil {
			progress(p)
		}
	}

	report(ScanProgress{Phase: "scanning"})

	files, err := v.Files()
	if err != nil {
		return nil, err
	}

	var (
		all  []*tasks.Task
		errs *multierror.Error
	)

	v.cache.Retain(files)

	parse := func(file string) ([]*tasks.Task, error) {
		return parseFile(v.Root, file, v.Parser)
	}

	hits := 0
	for i, file := range files {
		report(ScanProgress{
			Phase:       "parsing",
			FilesFound:  len(files),
			FilesParsed: i,
			TasksFound:  len(all),
			CurrentFile: file,
		})

		parsed, cached, err := v.cache.Tasks(file, parse)
		if err != nil {
			v.log.Warn().Err(err).Str("file", file).Msg("skipping unreadable file")
			errs = multierror.Append(errs, err)
			continue
		}
		if cached {
			hits++
		}

		all = append(all, parsed...)
	}

	v.log.Debug().Int("files", len(files)).Int("cached", hits).Int("tasks", len(all)).Msg("vault loaded")

	return all, errs.ErrorOrNil()
}

// Path returns the absolute path of the note a task came from
func (v *Vault) Path(t *tasks.Task) string {
	return filepath.Join(v.Root, filepath.FromSlash(t.Path))
}

// Invalidate drops a file from the cache after it changed on disk
func (v *Vault) Invalidate(path string) {
	v.cache.Invalidate(path)
}

// scanVault recursively finds all .md files, skipping dot-directories and
// paths matching any exclude glob (relative to the vault, slash separated)
func scanVault(vaultPath string, exclude []string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(vaultPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, relErr := filepath.Rel(vaultPath, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if path != vaultPath && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if rel != "." && excluded(rel+"/", exclude) {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasSuffix(strings.ToLower(d.Name()), ".md") && !excluded(rel, exclude) {
			files = append(files, path)
		}

		return nil
	})

	return files, err
}

func excluded(rel string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		// "Templates/**" also excludes the directory itself
		if ok, _ := doublestar.Match(pattern, strings.TrimSuffix(rel, "/")); ok {
			return true
		}
	}
	return false
}

// parseFile extracts tasks from a markdown file. Each task records the closest
// heading above it; lines inside fenced code blocks are ignored.
func parseFile(vaultPath, filePath string, parser tasks.LineParser) ([]*tasks.Task, error) {
	file, err := os.Open(filePath)

	if err != nil {
		return nil, err
	}
	defer file.Close()

	rel, err := filepath.Rel(vaultPath, filePath)
	if err != nil {
		rel = filePath
	}
	rel = filepath.ToSlash(rel)

	var (
		found   []*tasks.Task
		heading string
		inFence bool
	)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		if fenceRe.MatchString(line) {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}

		if m := headingRe.FindStringSubmatch(line); m != nil {
			heading = m[1]
			continue
		}

		task, ok := parser.ParseLine(line, tasks.Location{Path: rel, LineNumber: lineNum, Heading: heading})
		if ok {
			found = append(found, task)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", rel, err)
	}

	return found, nil
}

// editorFinishedMsg is sent when the external editor closes
type editorFinishedMsg struct {
	err  error
	task *tasks.Task
}

// openInEditor opens the task's file in $EDITOR at the task line
func openInEditor(vault *Vault, task *tasks.Task) tea.Cmd {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	lineArg := fmt.Sprintf("+%d", task.LineNumber)
	c := exec.Command(editor, lineArg, vault.Path(task))

	return tea.ExecProcess(c, func(err error) tea.Msg {
		return editorFinishedMsg{err: err, task: task}
	})
}
