package query

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/elcuervo/otq/internal/tasks"
)

var placeholderRe = regexp.MustCompile(`\{\{\s*([^{}]*?)\s*\}\}`)

// fileContext exposes the properties of the file a query lives in
func fileContext(path string) map[string]any {
	t := &tasks.Task{Path: path}

	return map[string]any{
		"path":                     path,
		"pathWithoutExtension":     t.PathWithoutExtension(),
		"root":                     t.Root(),
		"folder":                   t.Folder(),
		"filename":                 t.Filename(),
		"filenameWithoutExtension": t.FilenameWithoutExtension(),
	}
}

// placeholderContext is the read-only view placeholders resolve against
func placeholderContext(path string) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"file": fileContext(path),
		},
	}
}

// hasPlaceholders reports whether the text contains any {{...}} token
func hasPlaceholders(text string) bool {
	return strings.Contains(text, "{{") && strings.Contains(text, "}}")
}

// placeholderError carries the user-facing text and the failure kind
type placeholderError struct {
	message string
	kind    error
}

func (e *placeholderError) Error() string { return e.message }

func (e *placeholderError) Unwrap() error { return e.kind }

// expandPlaceholders substitutes every {{dotted.path}} in one instruction line
func expandPlaceholders(line, path string, hasPath bool) (string, error) {
	if !hasPlaceholders(line) {
		return line, nil
	}

	if !hasPath {
		return "", &placeholderError{
			kind: ErrNoFilePath,
			message: "The query looks like it contains a placeholder, with \"{{\" and \"}}\"\n" +
				"but no file path has been supplied, so cannot expand placeholder values.\n" +
				"The query is:\n" + line,
		}
	}

	ctx := placeholderContext(path)

	unknown := ""
	expanded := placeholderRe.ReplaceAllStringFunc(line, func(token string) string {
		name := placeholderRe.FindStringSubmatch(token)[1]

		value, ok := resolvePath(ctx, name)
		if !ok {
			if unknown == "" {
				unknown = name
			}
			return token
		}
		return fmt.Sprint(value)
	})

	if unknown != "" {
		return "", &placeholderError{
			kind: ErrUnknownProperty,
			message: "There was an error expanding one or more placeholders.\n\n" +
				"The error message was:\n    Unknown property: " + unknown + "\n\n" +
				"The problem is in:\n    " + line,
		}
	}

	return expanded, nil
}

func resolvePath(ctx map[string]any, dotted string) (any, bool) {
	var current any = ctx

	for _, part := range strings.Split(dotted, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}

	if _, isMap := current.(map[string]any); isMap {
		return nil, false
	}

	return current, true
}
