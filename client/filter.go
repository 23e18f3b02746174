package client

import (
	"fmt"
	"sort"

	"golang-rehabtrack/models"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type Tab string

const (
	TabCurrent   Tab = "current"
	TabCompleted Tab = "completed"
	TabHistory   Tab = "history"
	TabAll       Tab = "all"
)

type StatusFilter string

const (
	FilterAll            StatusFilter = "all"
	FilterNotCompleted   StatusFilter = "not-completed"
	FilterWrongExecution StatusFilter = "wrong-execution"
)

type SortOption string

const (
	SortTimeAsc  SortOption = "time-asc"
	SortTimeDesc SortOption = "time-desc"
	SortNameAsc  SortOption = "name-asc"
	SortNameDesc SortOption = "name-desc"
)

func ParseTab(s string) (Tab, error) {
	switch t := Tab(s); t {
	case TabCurrent, TabCompleted, TabHistory, TabAll:
		return t, nil
	case "":
		return TabCurrent, nil
	}
	return "", fmt.Errorf("unknown tab %q (want current, completed, history or all)", s)
}

func ParseStatusFilter(s string) (StatusFilter, error) {
	switch f := StatusFilter(s); f {
	case FilterAll, FilterNotCompleted, FilterWrongExecution:
		return f, nil
	case "":
		return FilterAll, nil
	}
	return "", fmt.Errorf("unknown status filter %q (want all, not-completed or wrong-execution)", s)
}

func ParseSortOption(s string) (SortOption, error) {
	switch o := SortOption(s); o {
	case SortTimeAsc, SortTimeDesc, SortNameAsc, SortNameDesc:
		return o, nil
	case "":
		return SortTimeDesc, nil
	}
	return "", fmt.Errorf("unknown sort %q (want time-asc, time-desc, name-asc or name-desc)", s)
}

// CanonicalStatus normalizes the raw status. ok is false for statuses outside
// the known set, which then belong to no tab except TabAll.
func (e Exercise) CanonicalStatus() (models.ExerciseStatus, bool) {
	return models.NormalizeStatus(e.Status)
}

// FilterExercises keeps the exercises shown on tab. The status filter only
// narrows the current tab. The input slice is not modified.
func FilterExercises(exercises []Exercise, tab Tab, filter StatusFilter) []Exercise {
	out := make([]Exercise, 0, len(exercises))
	for _, e := range exercises {
		if tab == TabAll {
			out = append(out, e)
			continue
		}
		status, ok := e.CanonicalStatus()
		if !ok {
			continue
		}
		switch tab {
		case TabCompleted, TabHistory:
			if status == models.StatusCompleted {
				out = append(out, e)
			}
		case TabCurrent:
			if status != models.StatusCompleted && matchesFilter(status, filter) {
				out = append(out, e)
			}
		}
	}
	return out
}

func matchesFilter(status models.ExerciseStatus, filter StatusFilter) bool {
	switch filter {
	case FilterNotCompleted:
		return status == models.StatusNotCompleted
	case FilterWrongExecution:
		return status == models.StatusInProgress
	}
	return true
}

// SortExercises returns a sorted copy. Names compare with Unicode collation,
// ignoring case. Unknown options sort newest first.
func SortExercises(exercises []Exercise, by SortOption) []Exercise {
	out := append([]Exercise(nil), exercises...)

	switch by {
	case SortNameAsc, SortNameDesc:
		col := collate.New(language.Und, collate.IgnoreCase)
		sort.SliceStable(out, func(i, j int) bool {
			cmp := col.CompareString(out[i].Name, out[j].Name)
			if by == SortNameDesc {
				return cmp > 0
			}
			return cmp < 0
		})
	case SortTimeAsc:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].AssignedDate.Before(out[j].AssignedDate.Time)
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].AssignedDate.After(out[j].AssignedDate.Time)
		})
	}
	return out
}
