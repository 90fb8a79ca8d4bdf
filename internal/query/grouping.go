package query

import (
	"regexp"
	"slices"
	"strconv"

	"github.com/elcuervo/otq/internal/tasks"
)

// groupNode is one node of the grouping tree. Children keep insertion order and
// tasks keep the order of the sorted input.
type groupNode struct {
	name     string
	parent   *groupNode
	children []*groupNode
	index    map[string]*groupNode
	tasks    []*tasks.Task
}

func (n *groupNode) child(name string) *groupNode {
	if c, ok := n.index[name]; ok {
		return c
	}

	if n.index == nil {
		n.index = make(map[string]*groupNode)
	}

	c := &groupNode{name: name, parent: n}
	n.index[name] = c
	n.children = append(n.children, c)
	return c
}

func (n *groupNode) path() []string {
	var out []string
	for node := n; node.parent != nil; node = node.parent {
		out = append(out, node.name)
	}
	slices.Reverse(out)
	return out
}

// buildGroupTree expands the tree one level per grouper. A task that yields
// several names is added under each of them.
func buildGroupTree(list []*tasks.Task, groupers []*Grouper, info *SearchInfo) ([]*groupNode, error) {
	root := &groupNode{tasks: list}
	leaves := []*groupNode{root}

	for _, g := range groupers {
		var next []*groupNode

		for _, leaf := range leaves {
			for _, t := range leaf.tasks {
				names, err := g.Group(t, info)
				if err != nil {
					return nil, err
				}

				seen := make(map[string]bool, len(names))
				for _, name := range names {
					if seen[name] {
						continue
					}
					seen[name] = true

					c := leaf.child(name)
					c.tasks = append(c.tasks, t)
				}
			}
			next = append(next, leaf.children...)
		}

		leaves = next
	}

	return leaves, nil
}

// groupTasks builds the leaf groups sorted by their name paths, with the
// headings each group needs to be told apart from the one before it
func groupTasks(list []*tasks.Task, groupers []*Grouper, info *SearchInfo) ([]*TaskGroup, error) {
	leaves, err := buildGroupTree(list, groupers, info)
	if err != nil {
		return nil, err
	}

	groups := make([]*TaskGroup, 0, len(leaves))
	for _, leaf := range leaves {
		groups = append(groups, &TaskGroup{
			GroupNames: leaf.path(),
			Tasks:      leaf.tasks,
		})
	}

	slices.SortStableFunc(groups, func(a, b *TaskGroup) int {
		return compareGroupPaths(a.GroupNames, b.GroupNames, groupers)
	})

	setHeadings(groups)

	return groups, nil
}

// compareGroupPaths orders by the first differing level, honoring each
// grouper's reverse flag
func compareGroupPaths(a, b []string, groupers []*Grouper) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		n := compareGroupNames(a[i], b[i])
		if n == 0 {
			continue
		}
		if i < len(groupers) && groupers[i].Reverse {
			return -n
		}
		return n
	}
	return compareInts(len(a), len(b))
}

var groupOrderRe = regexp.MustCompile(`^%%(\d+)%%`)

// compareGroupNames orders two names carrying a %%n%% prefix by n first. The
// collator alone puts %%0%% after %%1%%.
func compareGroupNames(a, b string) int {
	ma, mb := groupOrderRe.FindStringSubmatch(a), groupOrderRe.FindStringSubmatch(b)
	if ma == nil || mb == nil {
		return compareText(a, b)
	}

	na, errA := strconv.Atoi(ma[1])
	nb, errB := strconv.Atoi(mb[1])
	if errA != nil || errB != nil {
		return compareText(a, b)
	}

	if n := compareInts(na, nb); n != 0 {
		return n
	}
	return compareText(a[len(ma[0]):], b[len(mb[0]):])
}

// setHeadings emits a heading for a level when it differs from the previous
// group, and for every deeper level after that
func setHeadings(groups []*TaskGroup) {
	var previous []string

	for _, g := range groups {
		emitting := previous == nil
		g.Headings = nil

		for level, name := range g.GroupNames {
			if !emitting && (level >= len(previous) || previous[level] != name) {
				emitting = true
			}
			if emitting {
				g.Headings = append(g.Headings, GroupHeading{
					Level:       level,
					Name:        name,
					DisplayName: DisplayName(name),
				})
			}
		}

		previous = g.GroupNames
	}
}
