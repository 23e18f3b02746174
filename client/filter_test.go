package client

import (
	"testing"
	"time"
)

func names(list []Exercise) string {
	out := ""
	for _, e := range list {
		out += e.Name
	}
	return out
}

func sampleExercises() []Exercise {
	day := func(d int) Timestamp { return Timestamp{time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC)} }
	return []Exercise{
		{ID: "1", Name: "B", Status: "Pending", AssignedDate: day(2)},
		{ID: "2", Name: "A", Status: "Completed", AssignedDate: day(1)},
		{ID: "3", Name: "C", Status: "In Progress", AssignedDate: day(3)},
		{ID: "4", Name: "D", Status: "Not Completed", AssignedDate: day(4)},
		{ID: "5", Name: "E", Status: "complete", AssignedDate: day(5)},
		{ID: "6", Name: "F", Status: "Thực hiện sai", AssignedDate: day(6)},
	}
}

func TestFilterByTab(t *testing.T) {
	list := sampleExercises()

	completed := FilterExercises(list, TabCompleted, FilterAll)
	for _, e := range completed {
		if s, _ := e.CanonicalStatus(); s != "Completed" {
			t.Fatalf("completed tab has %q", e.Status)
		}
	}
	if names(completed) != "AE" {
		t.Fatalf("completed = %s, want AE", names(completed))
	}
	if names(FilterExercises(list, TabHistory, FilterAll)) != "AE" {
		t.Fatal("history should match completed")
	}

	current := FilterExercises(list, TabCurrent, FilterAll)
	if names(current) != "BCD" {
		t.Fatalf("current = %s, want BCD", names(current))
	}

	if got := names(FilterExercises(list, TabCurrent, FilterNotCompleted)); got != "D" {
		t.Fatalf("not-completed = %s, want D", got)
	}
	if got := names(FilterExercises(list, TabCurrent, FilterWrongExecution)); got != "C" {
		t.Fatalf("wrong-execution = %s, want C", got)
	}
	if got := len(FilterExercises(list, TabAll, FilterAll)); got != len(list) {
		t.Fatalf("all tab = %d items", got)
	}
	if len(list) != 6 || list[0].Name != "B" {
		t.Fatal("input slice was modified")
	}
}

func TestSortExercises(t *testing.T) {
	list := []Exercise{{Name: "B"}, {Name: "A"}, {Name: "C"}}

	if got := names(SortExercises(list, SortNameAsc)); got != "ABC" {
		t.Fatalf("name-asc = %s", got)
	}
	if got := names(SortExercises(list, SortNameDesc)); got != "CBA" {
		t.Fatalf("name-desc = %s", got)
	}
	if names(list) != "BAC" {
		t.Fatal("input slice was modified")
	}

	dated := sampleExercises()
	if got := names(SortExercises(dated, SortTimeAsc)); got != "ABCDEF" {
		t.Fatalf("time-asc = %s", got)
	}
	if got := names(SortExercises(dated, SortTimeDesc)); got != "FEDCBA" {
		t.Fatalf("time-desc = %s", got)
	}
}

func TestSortNamesCollate(t *testing.T) {
	list := []Exercise{{Name: "bài tập"}, {Name: "Ăn"}, {Name: "an"}, {Name: "Zed"}}
	got := SortExercises(list, SortNameAsc)
	if got[len(got)-1].Name != "Zed" || got[0].Name == "Zed" {
		t.Fatalf("collated order = %v", got)
	}
	if got[2].Name != "bài tập" {
		t.Fatalf("accented names should sort with their base letters: %v", got)
	}
}

func TestParseOptions(t *testing.T) {
	if tab, err := ParseTab(""); err != nil || tab != TabCurrent {
		t.Fatalf("ParseTab default = %v, %v", tab, err)
	}
	if _, err := ParseTab("later"); err == nil {
		t.Fatal("unknown tab accepted")
	}
	if f, err := ParseStatusFilter("wrong-execution"); err != nil || f != FilterWrongExecution {
		t.Fatalf("ParseStatusFilter = %v, %v", f, err)
	}
	if o, err := ParseSortOption(""); err != nil || o != SortTimeDesc {
		t.Fatalf("ParseSortOption default = %v, %v", o, err)
	}
	if _, err := ParseSortOption("random"); err == nil {
		t.Fatal("unknown sort accepted")
	}
}
