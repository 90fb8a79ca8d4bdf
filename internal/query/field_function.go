package query

import (
	"cmp"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/elcuervo/otq/internal/tasks"
)

// functionField runs user expressions through the injected Evaluator. Compile
// failures are parse errors; failures while running surface as search errors.
type functionField struct{}

var (
	filterFunctionRe = regexp.MustCompile(`(?i)^filter by function (.+)$`)
	sortFunctionRe   = regexp.MustCompile(`(?i)^sort by function( reverse)? (.+)$`)
	groupFunctionRe  = regexp.MustCompile(`(?i)^group by function( reverse)? (.+)$`)
)

func (functionField) Name() string { return "function" }

func compileFunction(source string, env *parseEnv) (Expression, error) {
	if env.evaluator == nil {
		return nil, instructionError("Error: no expression evaluator is configured")
	}

	expression, err := env.evaluator.Compile(source)
	if err != nil {
		return nil, instructionError("Error: Failed parsing expression \"%s\".\nThe error message was:\n    %v", source, err)
	}

	return expression, nil
}

func (functionField) canFilter(line string) bool {
	return filterFunctionRe.MatchString(line)
}

func (functionField) filter(line string, env *parseEnv) (*Filter, error) {
	source := filterFunctionRe.FindStringSubmatch(line)[1]

	expression, err := compileFunction(source, env)
	if err != nil {
		return nil, err
	}

	return NewFilter(line, func(t *tasks.Task, info *SearchInfo) (bool, error) {
		result, err := expression.Evaluate(functionEnv(t, info))
		if err != nil {
			return false, err
		}

		ok, isBool := result.(bool)
		if !isBool {
			return false, fmt.Errorf("filtering function must return true or false. This returned \"%v\".", result)
		}
		return ok, nil
	}), nil
}

func (functionField) sorter(line string, env *parseEnv) (*Sorter, bool, error) {
	m := sortFunctionRe.FindStringSubmatch(line)
	if m == nil {
		return nil, false, nil
	}

	expression, err := compileFunction(m[2], env)
	if err != nil {
		return nil, false, err
	}

	key := func(t *tasks.Task, info *SearchInfo) (any, error) {
		return expression.Evaluate(functionEnv(t, info))
	}

	return newSorter(line, "function", m[1] != "", func(a, b *tasks.Task, info *SearchInfo) (int, error) {
		ka, err := key(a, info)
		if err != nil {
			return 0, err
		}
		kb, err := key(b, info)
		if err != nil {
			return 0, err
		}
		return compareFunctionValues(ka, kb)
	}), true, nil
}

// compareFunctionValues orders sort keys: nil last, false before true, numbers
// and dates ascending and strings with numeric-aware collation
func compareFunctionValues(a, b any) (int, error) {
	switch {
	case a == nil && b == nil:
		return 0, nil
	case a == nil:
		return 1, nil
	case b == nil:
		return -1, nil
	}

	if na, ok := toFloat(a); ok {
		if nb, ok := toFloat(b); ok {
			return cmp.Compare(na, nb), nil
		}
	}

	switch va := a.(type) {
	case string:
		if vb, ok := b.(string); ok {
			return compareText(va, vb), nil
		}
	case bool:
		if vb, ok := b.(bool); ok {
			return -compareBools(va, vb), nil
		}
	case time.Time:
		if vb, ok := b.(time.Time); ok {
			return va.Compare(vb), nil
		}
	}

	return 0, fmt.Errorf("unable to compare values of different types: %T and %T", a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}

func (functionField) grouper(line string, env *parseEnv) (*Grouper, bool, error) {
	m := groupFunctionRe.FindStringSubmatch(line)
	if m == nil {
		return nil, false, nil
	}

	expression, err := compileFunction(m[2], env)
	if err != nil {
		return nil, false, err
	}

	return newGrouper(line, "function", m[1] != "", func(t *tasks.Task, info *SearchInfo) ([]string, error) {
		result, err := expression.Evaluate(functionEnv(t, info))
		if err != nil {
			return nil, err
		}
		return groupNames(result)
	}), true, nil
}

// groupNames converts a function result into heading names. A nil result or an
// empty list puts the task in no group.
func groupNames(result any) ([]string, error) {
	switch v := result.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	case []string:
		return v, nil
	case []any:
		names := make([]string, 0, len(v))
		for _, item := range v {
			name, err := groupName(item)
			if err != nil {
				return nil, err
			}
			names = append(names, name)
		}
		return names, nil
	}

	name, err := groupName(result)
	if err != nil {
		return nil, err
	}
	return []string{name}, nil
}

func groupName(v any) (string, error) {
	switch n := v.(type) {
	case string:
		return n, nil
	case time.Time:
		return n.Format(tasks.DateLayout), nil
	case map[string]any:
		return "", fmt.Errorf("group name must be text, got an object: %v", strings.TrimPrefix(fmt.Sprint(n), "map"))
	}
	return fmt.Sprint(v), nil
}
