package dialog

import (
	"testing"

	"dinerd/internal/catalog"
)

func TestMergeKeepExisting(t *testing.T) {
	p := Preferences{"area": "west"}
	p.MergeKeepExisting(map[string]string{"area": "east", "food": "british"})
	if p["area"] != "west" {
		t.Errorf("existing slot must not be replaced, got %q", p["area"])
	}
	if p["food"] != "british" {
		t.Errorf("new slot must be merged, got %q", p["food"])
	}
}

func TestMergeOverwrite(t *testing.T) {
	p := Preferences{"area": "west"}
	p.MergeOverwrite(map[string]string{"area": "east"})
	if p["area"] != "east" {
		t.Errorf("overwrite policy must replace, got %q", p["area"])
	}
}

func TestMergeCanonicalizesAny(t *testing.T) {
	p := Preferences{}
	p.MergeOverwrite(map[string]string{"area": "any"})
	if p["area"] != "Any" {
		t.Errorf("sentinel must be stored canonically, got %q", p["area"])
	}
	if !IsAny(p["area"]) || !IsAny("any") || !IsAny("ANY") {
		t.Error("IsAny must be case-insensitive")
	}
	if IsAny("west") {
		t.Error("IsAny must reject real values")
	}
}

func TestChangedKeysOrderAndDiff(t *testing.T) {
	old := Preferences{"area": "west"}
	cur := Preferences{"area": "west", "food": "british", "pricerange": "cheap"}
	changed := cur.ChangedKeys(old)
	if len(changed) != 2 || changed[0] != catalog.SlotPriceRange || changed[1] != catalog.SlotFood {
		t.Errorf("ChangedKeys = %v, want [pricerange food]", changed)
	}

	// A changed value counts, an identical one does not.
	cur["area"] = "east"
	changed = cur.ChangedKeys(old)
	if len(changed) != 3 || changed[1] != catalog.SlotArea {
		t.Errorf("ChangedKeys = %v, want pricerange, area, food", changed)
	}
}

func TestMissingTreatsAnyAsFilled(t *testing.T) {
	p := Preferences{"area": "Any"}
	if p.Missing("area") {
		t.Error("the Any sentinel counts as a filled slot")
	}
	if !p.Missing("food") {
		t.Error("absent slot must be missing")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	p := Preferences{"area": "west"}
	c := p.Clone()
	c["area"] = "east"
	if p["area"] != "west" {
		t.Error("Clone must not share storage")
	}
}
