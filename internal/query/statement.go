package query

import "strings"

// Statement is one logical instruction after continuation lines are joined
type Statement struct {
	// RawInstruction is the source text, continuation lines included
	RawInstruction string
	// Instruction is the trimmed single-line text that is parsed
	Instruction string
}

// splitStatements breaks source into statements. A line ending in a backslash
// continues on the next line.
func splitStatements(source string) []Statement {
	lines := strings.Split(strings.ReplaceAll(source, "\r\n", "\n"), "\n")

	var (
		out  []Statement
		raw  []string
		body []string
	)

	flush := func() {
		if len(raw) == 0 {
			return
		}
		out = append(out, Statement{
			RawInstruction: strings.Join(raw, "\n"),
			Instruction:    strings.TrimSpace(strings.Join(body, " ")),
		})
		raw, body = nil, nil
	}

	for _, line := range lines {
		raw = append(raw, line)

		trimmed := strings.TrimRight(line, " \t")
		if cut, ok := strings.CutSuffix(trimmed, `\`); ok {
			body = append(body, strings.TrimSpace(cut))
			continue
		}

		body = append(body, strings.TrimSpace(line))
		flush()
	}
	flush()

	return out
}
