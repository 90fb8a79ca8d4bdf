package query

import "strings"

// Explanation is a printable description of a compiled filter. Leaves describe a
// single filter; internal nodes describe boolean combinators.
type Explanation struct {
	Description string
	Children    []*Explanation
}

// NewExplanation returns a leaf explanation
func NewExplanation(description string) *Explanation {
	return &Explanation{Description: description}
}

// Combine returns an internal node labelled with description
func Combine(description string, children ...*Explanation) *Explanation {
	return &Explanation{Description: description, Children: children}
}

func allOf(children ...*Explanation) *Explanation {
	return Combine("All of", children...)
}

func atLeastOneOf(children ...*Explanation) *Explanation {
	return Combine("At least one of", children...)
}

func noneOf(children ...*Explanation) *Explanation {
	return Combine("None of", children...)
}

func exactlyOneOf(children ...*Explanation) *Explanation {
	return Combine("Exactly one of", children...)
}

// String renders the tree without indentation
func (e *Explanation) String() string {
	return e.Indented("")
}

// Indented renders the tree, each level indented two more spaces than its parent
func (e *Explanation) Indented(indent string) string {
	if len(e.Children) == 0 {
		return indent + e.Description
	}

	var b strings.Builder
	b.WriteString(indent)
	b.WriteString(e.Description)
	b.WriteString(":")

	for _, child := range e.Children {
		b.WriteString("\n")
		b.WriteString(child.Indented(indent + "  "))
	}

	return b.String()
}
