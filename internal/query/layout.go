package query

import (
	"regexp"
	"slices"
	"strings"
)

// Layout components that can be hidden or shown
const (
	ComponentID             = "id"
	ComponentDependsOn      = "depends on"
	ComponentPriority       = "priority"
	ComponentRecurrenceRule = "recurrence rule"
	ComponentCreatedDate    = "created date"
	ComponentStartDate      = "start date"
	ComponentScheduledDate  = "scheduled date"
	ComponentDueDate        = "due date"
	ComponentDoneDate       = "done date"
	ComponentCancelledDate  = "cancelled date"
	ComponentTags           = "tags"
	ComponentBacklink       = "backlink"
	ComponentUrgency        = "urgency"
	ComponentEditButton     = "edit button"
	ComponentPostponeButton = "postpone button"
	ComponentTaskCount      = "task count"
	ComponentTree           = "tree"
	ComponentToolbar        = "toolbar"
)

var layoutComponents = []string{
	ComponentID,
	ComponentDependsOn,
	ComponentPriority,
	ComponentRecurrenceRule,
	ComponentCreatedDate,
	ComponentStartDate,
	ComponentScheduledDate,
	ComponentDueDate,
	ComponentDoneDate,
	ComponentCancelledDate,
	ComponentTags,
	ComponentBacklink,
	ComponentUrgency,
	ComponentEditButton,
	ComponentPostponeButton,
	ComponentTaskCount,
	ComponentTree,
	ComponentToolbar,
}

// hiddenByDefault lists components a renderer leaves out unless shown
var hiddenByDefault = []string{ComponentUrgency, ComponentTree}

var (
	hideShowRe = regexp.MustCompile(`(?i)^(hide|show) (.+)$`)
	modeRe     = regexp.MustCompile(`(?i)^(short|full)( mode)?$`)
)

// Layout holds the display options of a query. It does not affect which tasks
// match; renderers read it.
type Layout struct {
	Hidden    map[string]bool `json:"hidden" yaml:"hidden"`
	ShortMode bool            `json:"short_mode" yaml:"short_mode"`
}

func NewLayout() *Layout {
	l := &Layout{Hidden: make(map[string]bool, len(layoutComponents))}
	for _, c := range hiddenByDefault {
		l.Hidden[c] = true
	}
	return l
}

// IsHidden reports whether a component should be left out
func (l *Layout) IsHidden(component string) bool {
	return l.Hidden[component]
}

// HiddenComponents returns the hidden components in catalogue order
func (l *Layout) HiddenComponents() []string {
	var out []string
	for _, c := range layoutComponents {
		if l.Hidden[c] {
			out = append(out, c)
		}
	}
	return out
}

// apply consumes a hide/show or mode line. It returns ok=false when the line
// is not a layout instruction.
func (l *Layout) apply(line string) (ok bool, err error) {
	if m := modeRe.FindStringSubmatch(line); m != nil {
		l.ShortMode = strings.EqualFold(m[1], "short")
		return true, nil
	}

	m := hideShowRe.FindStringSubmatch(line)
	if m == nil {
		return false, nil
	}

	component := strings.ToLower(strings.TrimSpace(m[2]))
	if !slices.Contains(layoutComponents, component) {
		return true, instructionError("do not understand hide/show option")
	}

	l.Hidden[component] = strings.EqualFold(m[1], "hide")
	return true, nil
}
