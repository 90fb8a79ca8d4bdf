package main

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/elcuervo/otq/internal/query"
	"github.com/elcuervo/otq/internal/tasks"
)

var (
	blockRe  = regexp.MustCompile("(?s)```tasks[ \\t]*\\r?\\n(.*?)```")
	headerRe = regexp.MustCompile(`(?m)^##\s+(.+)$`)
)

// QueryBlock is one ```tasks block and the section heading above it
type QueryBlock struct {
	Name   string
	Source string
}

// QuerySection is a compiled block together with its results
type QuerySection struct {
	Name   string
	Query  *query.Query
	Result *query.QueryResult
}

// parseQueryBlocks extracts every ```tasks block. A block is named after the
// closest "## " heading that ends before it.
func parseQueryBlocks(content string) []QueryBlock {
	matches := blockRe.FindAllStringSubmatchIndex(content, -1)
	headers := headerRe.FindAllStringSubmatchIndex(content, -1)

	blocks := make([]QueryBlock, 0, len(matches))

	for _, match := range matches {
		blockStart := match[0]
		sectionName := ""

		for _, header := range headers {
			if header[1] >= blockStart {
				break
			}
			sectionName = strings.TrimSpace(content[header[2]:header[3]])
		}

		blocks = append(blocks, QueryBlock{
			Name:   sectionName,
			Source: strings.TrimRight(content[match[2]:match[3]], "\n"),
		})
	}

	return blocks
}

// parseQueryFile reads all ```tasks blocks from a note
func parseQueryFile(filePath string) ([]QueryBlock, error) {
	content, err := os.ReadFile(filePath)

	if err != nil {
		return nil, err
	}

	blocks := parseQueryBlocks(string(content))
	if len(blocks) == 0 {
		return nil, fmt.Errorf("no ```tasks block found in %s", filePath)
	}

	return blocks, nil
}

// querySource describes where queries come from: a note inside the vault, or
// inline text typed on the command line
type querySource struct {
	Text   string
	IsFile bool
	// Path is the query note relative to the vault, used for placeholders
	Path string
}

func (s querySource) blocks() ([]QueryBlock, error) {
	if s.IsFile {
		return parseQueryFile(s.Text)
	}
	return []QueryBlock{{Source: strings.ReplaceAll(s.Text, `\n`, "\n")}}, nil
}

// buildSections compiles each block against the global settings and applies it
func buildSections(blocks []QueryBlock, all []*tasks.Task, opts []query.Option) []QuerySection {
	sections := make([]QuerySection, 0, len(blocks))

	for _, block := range blocks {
		q := query.ForBlock(block.Source, opts...)
		sections = append(sections, QuerySection{
			Name:   block.Name,
			Query:  q,
			Result: q.ApplyToTasks(all),
		})
	}

	return sections
}
