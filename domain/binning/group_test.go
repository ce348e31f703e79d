package binning

import (
	"errors"
	"testing"

	"quantbin/domain/core"
)

func TestGroupByBin(t *testing.T) {
	ts := &TargetSlice{
		TargetIdx: 0,
		UIDs:      []core.UID{"a", "b", "c", "d"},
		Errors:    map[core.UID]float64{"a": 1, "b": 2, "c": 3, "d": 4},
		Bins:      map[core.UID]int{"a": 0, "b": 1, "c": 0, "d": 1},
	}

	g, err := GroupByBin(ts, 2)
	if err != nil {
		t.Fatalf("GroupByBin: %v", err)
	}

	if got, want := len(g.UIDs), 2; got != want {
		t.Fatalf("got %d groups, want %d", got, want)
	}
	if g.UIDs[0][0] != "a" || g.UIDs[0][1] != "c" {
		t.Errorf("bin 0 uids = %v, want [a c]", g.UIDs[0])
	}
	if g.Errors[1][0] != 2 || g.Errors[1][1] != 4 {
		t.Errorf("bin 1 errors = %v, want [2 4]", g.Errors[1])
	}
}

func TestGroupByBin_MissingErrorFailsLoudly(t *testing.T) {
	ts := &TargetSlice{
		TargetIdx: 3,
		UIDs:      []core.UID{"a", "b"},
		Errors:    map[core.UID]float64{"a": 1},
		Bins:      map[core.UID]int{"a": 0, "b": 1},
	}

	_, err := GroupByBin(ts, 2)
	if err == nil {
		t.Fatal("expected integrity error for uid with bin label but no error")
	}
	if !errors.Is(err, core.ErrUIDMismatch) {
		t.Errorf("expected ErrUIDMismatch, got %v", err)
	}
}

func TestBinGroups_Reverse(t *testing.T) {
	ts := &TargetSlice{
		UIDs:   []core.UID{"a", "b"},
		Errors: map[core.UID]float64{"a": 1, "b": 2},
		Bins:   map[core.UID]int{"a": 0, "b": 1},
	}
	g, err := GroupByBin(ts, 2)
	if err != nil {
		t.Fatalf("GroupByBin: %v", err)
	}
	g.Reverse()
	if g.UIDs[0][0] != "b" {
		t.Errorf("after reverse, bin 0 = %v, want [b]", g.UIDs[0])
	}
	if g.UIDs[1][0] != "a" {
		t.Errorf("after reverse, bin 1 = %v, want [a]", g.UIDs[1])
	}
}
