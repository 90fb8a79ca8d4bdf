package query

import (
	"fmt"

	"github.com/elcuervo/otq/internal/tasks"
)

// booleanField combines bracketed sub-instructions with AND, OR, XOR and NOT.
// It is last in the registry and compiles every leaf through parseFilter.
type booleanField struct{}

func (booleanField) Name() string { return "boolean query" }

func (booleanField) canFilter(line string) bool {
	return looksBoolean(line)
}

func (booleanField) filter(line string, env *parseEnv) (*Filter, error) {
	tree, err := ParseBoolean(line)
	if err != nil {
		return nil, booleanError(line, err)
	}

	compiled, err := compileBoolean(tree, env)
	if err != nil {
		return nil, booleanError(line, err)
	}

	return &Filter{
		Instruction: line,
		Explanation: compiled.Explanation,
		Match:       compiled.Match,
	}, nil
}

func booleanError(line string, err error) error {
	return instructionError("Could not interpret the following instruction as a Boolean combination:\n    %s\n\nThe error message is:\n    %v", line, err)
}

// compileBoolean folds the tree bottom-up into one predicate and one explanation
func compileBoolean(node BoolExpression, env *parseEnv) (*Filter, error) {
	switch n := node.(type) {
	case *LeafExpression:
		leaf, err := parseFilter(n.Text, env)
		if err != nil {
			return nil, fmt.Errorf("couldn't parse sub-expression '%s': %v", n.Text, err)
		}
		return leaf, nil

	case *PrefixExpression:
		right, err := compileBoolean(n.Right, env)
		if err != nil {
			return nil, err
		}
		return &Filter{
			Instruction: n.String(),
			Explanation: noneOf(right.Explanation),
			Match:       negate(right.Match),
		}, nil

	case *InfixExpression:
		return compileInfix(n, env)
	}

	return nil, fmt.Errorf("unsupported expression %T", node)
}

func compileInfix(n *InfixExpression, env *parseEnv) (*Filter, error) {
	operands := flattenInfix(n)

	compiled := make([]*Filter, 0, len(operands))
	for _, operand := range operands {
		f, err := compileBoolean(operand, env)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, f)
	}

	explanations := make([]*Explanation, len(compiled))
	for i, f := range compiled {
		explanations[i] = f.Explanation
	}

	var (
		expl  *Explanation
		match FilterFunc
	)

	switch n.Operator {
	case AND:
		expl = allOf(explanations...)
		match = func(t *tasks.Task, info *SearchInfo) (bool, error) {
			for _, f := range compiled {
				ok, err := f.Match(t, info)
				if err != nil || !ok {
					return false, err
				}
			}
			return true, nil
		}
	case OR:
		expl = atLeastOneOf(explanations...)
		match = func(t *tasks.Task, info *SearchInfo) (bool, error) {
			for _, f := range compiled {
				ok, err := f.Match(t, info)
				if err != nil || ok {
					return ok, err
				}
			}
			return false, nil
		}
	case XOR:
		expl = exactlyOneOf(explanations...)
		match = func(t *tasks.Task, info *SearchInfo) (bool, error) {
			left, err := compiled[0].Match(t, info)
			if err != nil {
				return false, err
			}
			right, err := compiled[1].Match(t, info)
			if err != nil {
				return false, err
			}
			return left != right, nil
		}
	default:
		return nil, fmt.Errorf("unsupported operator %s", n.Operator)
	}

	return &Filter{Instruction: n.String(), Explanation: expl, Match: match}, nil
}

// flattenInfix lifts chains of the same AND or OR operator into one operand
// list. XOR is kept binary since a chain of XORs is a parity test.
func flattenInfix(n *InfixExpression) []BoolExpression {
	if n.Operator == XOR {
		return []BoolExpression{n.Left, n.Right}
	}

	var out []BoolExpression
	for _, side := range []BoolExpression{n.Left, n.Right} {
		if child, ok := side.(*InfixExpression); ok && child.Operator == n.Operator {
			out = append(out, flattenInfix(child)...)
			continue
		}
		out = append(out, side)
	}
	return out
}
