package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDueDateFilters(t *testing.T) {
	all := taskList(t,
		"- [ ] yesterday 📅 2024-01-09",
		"- [ ] today 📅 2024-01-10",
		"- [ ] tomorrow 📅 2024-01-11",
		"- [ ] undated",
	)

	tests := []struct {
		query string
		want  []string
	}{
		{query: "due before today", want: []string{"yesterday"}},
		{query: "due after today", want: []string{"tomorrow"}},
		{query: "due on or before today", want: []string{"yesterday", "today"}},
		{query: "due on or after 2024-01-10", want: []string{"today", "tomorrow"}},
		{query: "due today", want: []string{"today"}},
		{query: "due on 2024-01-11", want: []string{"tomorrow"}},
		{query: "due date in this week", want: []string{"yesterday", "today", "tomorrow"}},
		{query: "due 2024-01-10 2024-01-31", want: []string{"today", "tomorrow"}},
		{query: "no due date", want: []string{"undated"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, resultDescriptions(run(t, tt.query, all)))
		})
	}
}

func TestDateFilterExplanations(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{
			query: "due this week",
			want:  "due date is between 2024-01-08 (Monday 8th January 2024) and 2024-01-14 (Sunday 14th January 2024) inclusive",
		},
		{
			query: "scheduled before tomorrow",
			want:  "scheduled date is before 2024-01-11 (Thursday 11th January 2024)",
		},
		{
			query: "starts after 2024-01-10",
			want:  "start date is after 2024-01-10 (Wednesday 10th January 2024) OR no start date",
		},
		{
			query: "happens on or before today",
			want:  "due, start or scheduled date is on or before 2024-01-10 (Wednesday 10th January 2024)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			q := New(tt.query, fixedClock())
			require.NoError(t, q.Err())
			require.Len(t, q.Filters(), 1)
			assert.Equal(t, tt.want, q.Filters()[0].Explanation.String())
		})
	}
}

func TestStartDateMatchesUndatedTasks(t *testing.T) {
	all := taskList(t,
		"- [ ] early 🛫 2024-01-05",
		"- [ ] late 🛫 2024-01-15",
		"- [ ] whenever",
	)

	result := run(t, "starts before 2024-01-10", all)
	assert.Equal(t, []string{"early", "whenever"}, resultDescriptions(result))

	result = run(t, "has start date", all)
	assert.Equal(t, []string{"early", "late"}, resultDescriptions(result))
}

func TestHappensMatchesAnyDate(t *testing.T) {
	all := taskList(t,
		"- [ ] scheduled ⏳ 2024-01-05 📅 2024-02-01",
		"- [ ] due 📅 2024-01-05",
		"- [ ] other 🛫 2024-01-06",
		"- [ ] none",
	)

	result := run(t, "happens on 2024-01-05", all)
	assert.Equal(t, []string{"scheduled", "due"}, resultDescriptions(result))

	result = run(t, "no happens date", all)
	assert.Equal(t, []string{"none"}, resultDescriptions(result))
}

func TestDoneDateFilter(t *testing.T) {
	all := taskList(t,
		"- [x] finished ✅ 2024-01-09",
		"- [x] finished long ago ✅ 2023-06-01",
		"- [ ] open",
	)

	result := run(t, "done last month", all)
	assert.Empty(t, resultDescriptions(result))

	result = run(t, "done in 2024", all)
	assert.Equal(t, []string{"finished"}, resultDescriptions(result))

	// "done" alone is the status filter, not the date
	result = run(t, "done", all)
	assert.Equal(t, []string{"finished", "finished long ago"}, resultDescriptions(result))
}

func TestTagFilters(t *testing.T) {
	all := taskList(t,
		"- [ ] report #work",
		"- [ ] garden #home/outside",
		"- [ ] both #work #home",
		"- [ ] untagged",
	)

	tests := []struct {
		query string
		want  []string
	}{
		{query: "tags include #work", want: []string{"report", "both"}},
		{query: "tag includes HOME", want: []string{"garden", "both"}},
		{query: "tags do not include #work", want: []string{"garden", "untagged"}},
		{query: "no tags", want: []string{"untagged"}},
		{query: "has tags", want: []string{"report", "garden", "both"}},
		{query: "tags regex matches /^#home\\//", want: []string{"garden"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			descs := resultDescriptions(run(t, tt.query, all))
			require.Len(t, descs, len(tt.want))
			for i, want := range tt.want {
				assert.Contains(t, descs[i], want)
			}
		})
	}
}

func TestGroupByTagsFansOut(t *testing.T) {
	all := taskList(t,
		"- [ ] both #work #home",
		"- [ ] untagged",
		"- [ ] report #work",
	)

	result := run(t, "group by tags", all)

	byName := make(map[string][]string)
	for _, g := range result.Groups() {
		require.Len(t, g.GroupNames, 1)
		byName[g.GroupNames[0]] = descriptions(g.Tasks)
	}

	assert.Equal(t, map[string][]string{
		"#home":     {"both #work #home"},
		"#work":     {"both #work #home", "report #work"},
		"(No tags)": {"untagged"},
	}, byName)
	assert.Equal(t, 3, result.TotalTasksCount())
}

func TestSortByTag(t *testing.T) {
	all := taskList(t,
		"- [ ] one #b #z",
		"- [ ] two #a #y",
		"- [ ] three",
	)

	result := run(t, "sort by tag", all)
	assert.Equal(t, []string{"two #a #y", "one #b #z", "three"}, resultDescriptions(result))

	result = run(t, "sort by tag reverse 2", all[:2])
	assert.Equal(t, []string{"one #b #z", "two #a #y"}, resultDescriptions(result))

	q := New("sort by tag 0")
	assert.Contains(t, q.Error(), "tag number must be 1 or more")
}

func TestPriorityFilters(t *testing.T) {
	all := taskList(t,
		"- [ ] top 🔺",
		"- [ ] high ⏫",
		"- [ ] medium 🔼",
		"- [ ] normal",
		"- [ ] low 🔽",
		"- [ ] bottom ⏬",
	)

	tests := []struct {
		query string
		want  []string
	}{
		{query: "priority above none", want: []string{"top", "high", "medium"}},
		{query: "priority is below normal", want: []string{"low", "bottom"}},
		{query: "priority is high", want: []string{"high"}},
		{query: "priority is none", want: []string{"normal"}},
		{query: "priority not lowest", want: []string{"top", "high", "medium", "normal", "low"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, resultDescriptions(run(t, tt.query, all)))
		})
	}

	q := New("priority is urgent")
	assert.Contains(t, q.Error(), "do not understand priority")
}

func TestGroupByPriorityDisplayNames(t *testing.T) {
	all := taskList(t, "- [ ] later 🔽", "- [ ] now 🔺", "- [ ] meh")

	result := run(t, "group by priority", all)

	groups := result.Groups()
	require.Len(t, groups, 3)
	assert.Equal(t, []string{"Highest priority"}, groups[0].DisplayNames())
	assert.Equal(t, []string{"Normal priority"}, groups[1].DisplayNames())
	assert.Equal(t, []string{"Low priority"}, groups[2].DisplayNames())
	assert.Equal(t, "Highest priority", groups[0].Headings[0].DisplayName)
}

func TestStatusFilters(t *testing.T) {
	all := taskList(t,
		"- [ ] todo",
		"- [/] started",
		"- [x] finished",
		"- [-] dropped",
	)

	tests := []struct {
		query string
		want  []string
	}{
		{query: "not done", want: []string{"todo", "started"}},
		{query: "status.type is IN_PROGRESS", want: []string{"started"}},
		{query: "status.type is not done", want: []string{"todo", "started", "dropped"}},
		{query: "STATUS.TYPE IS NOT TODO", want: []string{"started", "finished", "dropped"}},
		{query: "status.name includes progress", want: []string{"started"}},
		{query: "status.name does not include o", want: []string{"dropped"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, resultDescriptions(run(t, tt.query, all)))
		})
	}

	q := New("status.type is not LATER")
	assert.Contains(t, q.Error(), "Invalid status.type instruction: 'status.type is not LATER'.")

	q = New("status.type is LATER")
	assert.Contains(t, q.Error(), "Invalid status.type instruction: 'status.type is LATER'.")
}

func TestGroupByStatusType(t *testing.T) {
	all := taskList(t, "- [x] finished", "- [ ] todo", "- [/] started")

	result := run(t, "group by status.type", all)

	groups := result.Groups()
	require.Len(t, groups, 3)
	assert.Equal(t, []string{"IN_PROGRESS"}, groups[0].DisplayNames())
	assert.Equal(t, []string{"TODO"}, groups[1].DisplayNames())
	assert.Equal(t, []string{"DONE"}, groups[2].DisplayNames())
}

func TestDependencyFilters(t *testing.T) {
	all := taskList(t,
		"- [ ] parent 🆔 p1",
		"- [ ] child ⛔ p1",
		"- [ ] free",
	)

	tests := []struct {
		query string
		want  []string
	}{
		{query: "is blocked", want: []string{"child"}},
		{query: "is not blocked", want: []string{"parent", "free"}},
		{query: "is blocking", want: []string{"parent"}},
		{query: "has id", want: []string{"parent"}},
		{query: "no depends on", want: []string{"parent", "free"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, resultDescriptions(run(t, tt.query, all)))
		})
	}

	// blocking is decided against every task, not only the ones that matched
	result := run(t, "is blocked\ndescription includes child", all)
	assert.Equal(t, []string{"child"}, resultDescriptions(result))
}

func TestRecurringAndSubItems(t *testing.T) {
	all := taskList(t,
		"- [ ] rent 🔁 every month",
		"    - [ ] receipt",
		"- [ ] once",
	)

	assert.Equal(t, []string{"rent"}, resultDescriptions(run(t, "is recurring", all)))
	assert.Equal(t, []string{"rent", "once"}, resultDescriptions(run(t, "exclude sub-items", all)))
	assert.Equal(t, []string{"rent"}, resultDescriptions(run(t, "recurrence includes month", all)))
}

func TestRegexFilters(t *testing.T) {
	all := taskList(t, "- [ ] Buy milk", "- [ ] buy bread", "- [ ] sell car")

	result := run(t, "description regex matches /^buy/i", all)
	assert.Equal(t, []string{"Buy milk", "buy bread"}, resultDescriptions(result))

	result = run(t, "description regex does not match /^buy/", all)
	assert.Equal(t, []string{"Buy milk", "sell car"}, resultDescriptions(result))

	q := New("description regex matches /^buy/i")
	assert.Equal(t,
		"description regex matches /^buy/i =>\n  using regex:     '^buy' with flag 'i'\n",
		q.ExplainQuery())

	q = New("description regex matches buy")
	assert.Contains(t, q.Error(), "Regular expressions must look like this")

	q = New("description regex matches /(unclosed/")
	assert.Contains(t, q.Error(), "The regular expression could not be compiled")
}

func TestPathFilters(t *testing.T) {
	all := append(
		taskListAt(t, "Work/Projects/plan.md", "- [ ] plan"),
		taskListAt(t, "Home/list.md", "- [ ] list")...,
	)

	assert.Equal(t, []string{"plan"}, resultDescriptions(run(t, "path includes projects", all)))
	assert.Equal(t, []string{"list"}, resultDescriptions(run(t, "root includes home", all)))
	assert.Equal(t, []string{"plan"}, resultDescriptions(run(t, "folder includes Work/Projects/", all)))
	assert.Equal(t, []string{"list"}, resultDescriptions(run(t, "filename includes list.md", all)))
}

func TestSorting(t *testing.T) {
	all := taskList(t,
		"- [ ] late 📅 2024-02-01",
		"- [ ] undated ⏫",
		"- [ ] soon 📅 2024-01-10 🔽",
	)

	assert.Equal(t, []string{"soon", "late", "undated"}, resultDescriptions(run(t, "sort by due", all)))
	assert.Equal(t, []string{"undated", "late", "soon"}, resultDescriptions(run(t, "sort by priority", all)))
	assert.Equal(t, []string{"undated", "soon", "late"}, resultDescriptions(run(t, "sort by description reverse", all)))
	assert.Equal(t, "soon", resultDescriptions(run(t, "sort by urgency", all))[0])

	q := New("sort by nonsense")
	assert.ErrorIs(t, q.Err(), ErrUnknownInstruction)
}

func TestSortersApplyInOrder(t *testing.T) {
	all := taskList(t,
		"- [x] b done",
		"- [ ] b open",
		"- [ ] a open",
	)

	result := run(t, "sort by status\nsort by description", all)
	assert.Equal(t, []string{"a open", "b open", "b done"}, resultDescriptions(result))
}

func TestGroupByBacklinkAndHeading(t *testing.T) {
	all := taskListAt(t, "notes/Inbox.md", "- [ ] a", "- [ ] b")
	all[1].Heading = "Errands"

	result := run(t, "group by backlink", all)
	require.Len(t, result.Groups(), 2)
	assert.Equal(t, []string{"[[Inbox]]"}, result.Groups()[0].GroupNames)
	assert.Equal(t, []string{"[[Inbox]] > Errands"}, result.Groups()[1].GroupNames)

	result = run(t, "group by heading reverse", all)
	require.Len(t, result.Groups(), 2)
	assert.Equal(t, []string{"Errands"}, result.Groups()[0].GroupNames)
	assert.Equal(t, []string{"(No heading)"}, result.Groups()[1].GroupNames)
}
