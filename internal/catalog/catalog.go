// Package catalog derives the controlled vocabulary for preference
// extraction from the restaurant dataset: the set of known values per
// filterable slot. Built once at startup, immutable afterwards.
package catalog

import (
	"fmt"
	"sort"
)

// Slot names, in the order the extractor scans them.
const (
	SlotArea       = "area"
	SlotPriceRange = "pricerange"
	SlotFood       = "food"

	// SlotRequirement is not catalog-backed; it is listed here because
	// preference maps use it as a key alongside the catalog slots.
	SlotRequirement = "additional_requirement"
)

// Slots lists the catalog-backed slots in scan order.
var Slots = []string{SlotPriceRange, SlotArea, SlotFood}

// Source yields distinct column values; *store.Store satisfies it.
type Source interface {
	DistinctValues(column string) ([]string, error)
}

// Catalog maps each catalog-backed slot to its sorted known values.
type Catalog struct {
	values map[string][]string
}

// Build reads the distinct values of every catalog slot from src.
func Build(src Source) (*Catalog, error) {
	values := make(map[string][]string, len(Slots))
	for _, slot := range Slots {
		vs, err := src.DistinctValues(slot)
		if err != nil {
			return nil, fmt.Errorf("failed to build catalog for %s: %w", slot, err)
		}
		sorted := append([]string(nil), vs...)
		sort.Strings(sorted)
		values[slot] = sorted
	}
	return &Catalog{values: values}, nil
}

// FromValues builds a catalog directly from value sets. Used by tests and
// by hosts that already hold the dataset in memory.
func FromValues(values map[string][]string) *Catalog {
	copied := make(map[string][]string, len(values))
	for slot, vs := range values {
		sorted := append([]string(nil), vs...)
		sort.Strings(sorted)
		copied[slot] = sorted
	}
	return &Catalog{values: copied}
}

// ValuesFor returns the known values of a slot, sorted. The returned slice
// must not be modified.
func (c *Catalog) ValuesFor(slot string) []string {
	return c.values[slot]
}

// Contains reports whether value is a known value of slot.
func (c *Catalog) Contains(slot, value string) bool {
	for _, v := range c.values[slot] {
		if v == value {
			return true
		}
	}
	return false
}
