package query

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dlclark/regexp2"
)

// TextMatcher decides whether a piece of task text matches a filter value
type TextMatcher interface {
	Matches(text string) bool
	Explain(field string) *Explanation
}

// substringMatcher matches case-insensitively anywhere in the text
type substringMatcher struct {
	needle string
}

func (m substringMatcher) Matches(text string) bool {
	return strings.Contains(strings.ToLower(text), strings.ToLower(m.needle))
}

func (m substringMatcher) Explain(string) *Explanation {
	return nil
}

// regexMatcher evaluates /pattern/flags with ECMAScript semantics
type regexMatcher struct {
	source string
	flags  string
	re     *regexp2.Regexp
}

var regexLiteralRe = regexp.MustCompile(`^/(.+)/([a-z]*)$`)

func newRegexMatcher(instruction, value string) (*regexMatcher, error) {
	m := regexLiteralRe.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		return nil, instructionError("%s", regexGuidance(instruction))
	}

	opts := regexp2.RegexOptions(regexp2.ECMAScript)
	for _, flag := range m[2] {
		switch flag {
		case 'i':
			opts |= regexp2.IgnoreCase
		case 'm':
			opts |= regexp2.Multiline
		case 's':
			// ECMAScript mode rejects Singleline, so drop it for this flag
			opts = opts&^regexp2.ECMAScript | regexp2.Singleline
		case 'u', 'g':
		default:
			return nil, instructionError("%s", regexGuidance(instruction))
		}
	}

	re, err := regexp2.Compile(m[1], opts)
	if err != nil {
		return nil, instructionError("Invalid instruction: '%s'\n\nThe regular expression could not be compiled:\n    %v", instruction, err)
	}

	return &regexMatcher{source: m[1], flags: m[2], re: re}, nil
}

func (m *regexMatcher) Matches(text string) bool {
	ok, err := m.re.MatchString(text)
	return err == nil && ok
}

func (m *regexMatcher) Explain(string) *Explanation {
	if m.flags == "" {
		return NewExplanation(fmt.Sprintf("using regex:     '%s' with no flags", m.source))
	}
	return NewExplanation(fmt.Sprintf("using regex:     '%s' with flag '%s'", m.source, m.flags))
}

func regexGuidance(instruction string) string {
	return `Invalid instruction: '` + instruction + `'

Regular expressions must look like this:
    /pattern/
or this:
    /pattern/flags

Where:
- pattern: The 'regular expression' pattern to search for.
- flags:   Optional characters that modify the search.
           i => make the search case-insensitive
           u => add Unicode support

Examples:  /^Log/
           /^Log/i
           /File Name\.md/
           /waiting|waits|waited/i
           /\d\d:\d\d/

The following characters have special meaning in the pattern:
to find them literally, you must add a \ before them:
    [\^$.|?*+()

CAUTION! Regular expression (or 'regex') searching is a powerful
but advanced feature that requires thorough knowledge in order to
use successfully, and not miss intended search results.`
}
