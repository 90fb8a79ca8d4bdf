package query

import "strings"

// Settings are the user-wide options every query is built with. An empty
// string disables the option.
type Settings struct {
	// GlobalFilter is the tag or text that marks a checklist line as a task
	GlobalFilter string `toml:"global_filter" json:"global_filter" yaml:"global_filter"`
	// GlobalQuery is prepended to every query block unless it opts out
	GlobalQuery string `toml:"global_query" json:"global_query" yaml:"global_query"`
}

func (s Settings) HasGlobalFilter() bool {
	return strings.TrimSpace(s.GlobalFilter) != ""
}

func (s Settings) HasGlobalQuery() bool {
	return strings.TrimSpace(s.GlobalQuery) != ""
}

func (s Settings) explainGlobalFilter() string {
	return "Only tasks containing the global filter '" + strings.TrimSpace(s.GlobalFilter) + "'.\n"
}
