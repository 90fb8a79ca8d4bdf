package tasks

import (
	"regexp"
	"strings"
	"time"
)

var (
	taskLineRe   = regexp.MustCompile(`^([\s>]*)([-*+]|[0-9]+[.)])\s+\[(.)\]\s*(.*)$`)
	hashTagRe    = regexp.MustCompile(`(^|\s)(#[^\s!@#$%^&*(),.?":{}|<>]+)`)
	trailTagRe   = regexp.MustCompile(`(^|\s)#[^\s!@#$%^&*(),.?":{}|<>]+$`)
	blockLinkRe  = regexp.MustCompile(`\s\^([a-zA-Z0-9-]+)$`)
	priorityRe   = regexp.MustCompile(`(🔺|⏫|🔼|🔽|⏬)\x{FE0F}?$`)
	startRe      = regexp.MustCompile(`🛫\x{FE0F}?\s*(\d{4}-\d{2}-\d{2})$`)
	scheduledRe  = regexp.MustCompile(`(?:⏳|⌛)\x{FE0F}?\s*(\d{4}-\d{2}-\d{2})$`)
	dueRe        = regexp.MustCompile(`(?:📅|📆|🗓)\x{FE0F}?\s*(\d{4}-\d{2}-\d{2})$`)
	createdRe    = regexp.MustCompile(`➕\x{FE0F}?\s*(\d{4}-\d{2}-\d{2})$`)
	doneRe       = regexp.MustCompile(`✅\x{FE0F}?\s*(\d{4}-\d{2}-\d{2})$`)
	cancelledRe  = regexp.MustCompile(`❌\x{FE0F}?\s*(\d{4}-\d{2}-\d{2})$`)
	recurrenceRe = regexp.MustCompile(`🔁\x{FE0F}?\s*([a-zA-Z0-9, !]+)$`)
	idRe         = regexp.MustCompile(`🆔\x{FE0F}?\s*([a-zA-Z0-9_-]+)$`)
	dependsOnRe  = regexp.MustCompile(`⛔\x{FE0F}?\s*([a-zA-Z0-9_-]+(?:\s*,\s*[a-zA-Z0-9_-]+)*)$`)
)

// maxMarkerPasses bounds the trailing-marker loop
const maxMarkerPasses = 20

// LineParser turns markdown list items into tasks
type LineParser struct {
	GlobalFilter string
	Statuses     *StatusRegistry
}

// Location identifies where a line came from
type Location struct {
	Path       string
	LineNumber int
	Heading    string
}

// ParseLine parses one markdown line. The second return is false when the line
// is not a task, or when a global filter is set and the line does not carry it.
func (p LineParser) ParseLine(line string, loc Location) (*Task, bool) {
	matches := taskLineRe.FindStringSubmatch(line)
	if matches == nil {
		return nil, false
	}

	body := strings.TrimSpace(matches[4])

	if p.GlobalFilter != "" {
		if !strings.Contains(body, p.GlobalFilter) {
			return nil, false
		}
		body = strings.TrimSpace(strings.Join(strings.Fields(strings.Replace(body, p.GlobalFilter, "", 1)), " "))
	}

	statuses := p.Statuses
	if statuses == nil {
		statuses = DefaultStatuses
	}

	task := &Task{
		Status:           statuses.Lookup(matches[3]),
		Path:             loc.Path,
		LineNumber:       loc.LineNumber,
		Heading:          loc.Heading,
		Indentation:      matches[1],
		ListMarker:       matches[2],
		Priority:         PriorityNone,
		OriginalMarkdown: line,
	}

	if m := blockLinkRe.FindStringSubmatch(body); m != nil {
		task.BlockLink = " ^" + m[1]
		body = strings.TrimSpace(strings.TrimSuffix(body, m[0]))
	}

	var trailingTags []string

	for range maxMarkerPasses {
		matched := false

		body, matched = takeMarker(body, priorityRe, matched, func(v string) {
			task.Priority = prioritySigns[v]
		})
		body, matched = takeMarker(body, startRe, matched, func(v string) { task.StartDate = parseMarkerDate(v) })
		body, matched = takeMarker(body, scheduledRe, matched, func(v string) { task.ScheduledDate = parseMarkerDate(v) })
		body, matched = takeMarker(body, dueRe, matched, func(v string) { task.DueDate = parseMarkerDate(v) })
		body, matched = takeMarker(body, createdRe, matched, func(v string) { task.CreatedDate = parseMarkerDate(v) })
		body, matched = takeMarker(body, doneRe, matched, func(v string) { task.DoneDate = parseMarkerDate(v) })
		body, matched = takeMarker(body, cancelledRe, matched, func(v string) { task.CancelledDate = parseMarkerDate(v) })
		body, matched = takeMarker(body, recurrenceRe, matched, func(v string) {
			task.Recurrence = &Recurrence{Rule: strings.TrimSpace(v)}
		})
		body, matched = takeMarker(body, idRe, matched, func(v string) { task.ID = v })
		body, matched = takeMarker(body, dependsOnRe, matched, func(v string) {
			for _, id := range strings.Split(v, ",") {
				task.DependsOn = append(task.DependsOn, strings.TrimSpace(id))
			}
		})

		if idx := trailTagRe.FindStringIndex(body); idx != nil {
			trailingTags = append([]string{strings.TrimSpace(body[idx[0]:])}, trailingTags...)
			body = strings.TrimSpace(body[:idx[0]])
			matched = true
		}

		if !matched {
			break
		}
	}

	if len(trailingTags) > 0 {
		body = strings.TrimSpace(body + " " + strings.Join(trailingTags, " "))
	}

	task.Description = body
	for _, m := range hashTagRe.FindAllStringSubmatch(body, -1) {
		task.Tags = append(task.Tags, m[2])
	}

	return task, true
}

func takeMarker(body string, re *regexp.Regexp, matched bool, apply func(string)) (string, bool) {
	m := re.FindStringSubmatch(body)
	if m == nil {
		return body, matched
	}

	apply(m[1])
	return strings.TrimSpace(strings.TrimSuffix(body, m[0])), true
}

func parseMarkerDate(value string) *time.Time {
	d, ok := ParseDate(value)
	if !ok {
		return nil
	}
	return &d
}
