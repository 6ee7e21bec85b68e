package duestate

import (
	"sort"
	"time"

	"taskit/internal/models/task"
)

type Entry struct {
	Task           *task.Task     `json:"task"`
	Classification Classification `json:"state"`
}

type DayGroup struct {
	Date  string  `json:"date"`
	Tasks []Entry `json:"tasks"`
}

// GroupByDay groups tasks by calendar date only. Groups are ascending by
// date and tasks inside a group are ordered by due instant. Tasks without a
// usable date are left out.
func GroupByDay(tasks []*task.Task, now time.Time) []DayGroup {
	index := make(map[string]int)
	groups := []DayGroup{}

	for _, t := range tasks {
		c, ok := Classify(t, now)
		if !ok {
			continue
		}
		key := c.DueAt.Format(task.DateLayout)
		i, exists := index[key]
		if !exists {
			i = len(groups)
			index[key] = i
			groups = append(groups, DayGroup{Date: key})
		}
		groups[i].Tasks = append(groups[i].Tasks, Entry{Task: t, Classification: c})
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Date < groups[j].Date
	})
	for _, g := range groups {
		sortEntries(g.Tasks)
	}
	return groups
}

type Dashboard struct {
	Overdue  []Entry `json:"overdue"`
	Today    []Entry `json:"today"`
	Tomorrow []Entry `json:"tomorrow"`
	Future   []Entry `json:"future"`
}

// Partition buckets incomplete tasks by day. Completed tasks are skipped.
func Partition(tasks []*task.Task, now time.Time) Dashboard {
	d := Dashboard{
		Overdue:  []Entry{},
		Today:    []Entry{},
		Tomorrow: []Entry{},
		Future:   []Entry{},
	}

	for _, t := range tasks {
		if t.Completed {
			continue
		}
		c, ok := Classify(t, now)
		if !ok {
			continue
		}
		e := Entry{Task: t, Classification: c}
		switch c.Day {
		case DayOverdue:
			d.Overdue = append(d.Overdue, e)
		case DayToday:
			d.Today = append(d.Today, e)
		case DayTomorrow:
			d.Tomorrow = append(d.Tomorrow, e)
		default:
			d.Future = append(d.Future, e)
		}
	}

	sortEntries(d.Overdue)
	sortEntries(d.Today)
	sortEntries(d.Tomorrow)
	sortEntries(d.Future)
	return d
}

func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Classification.DueAt.Before(entries[j].Classification.DueAt)
	})
}
