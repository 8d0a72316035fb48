package savefile

import (
	"fmt"

	"go.uber.org/zap"
)

// Layout holds the region bases resolved at open. It is computed once and
// goes stale if the inventory list changes shape while the file is open.
type Layout struct {
	Vitals     int
	Attributes int
	Perks      int
	Items      []ItemRecord
}

// Base returns the absolute offset of r.
func (l Layout) Base(r Region) int {
	switch r {
	case RegionVitals:
		return l.Vitals
	case RegionAttributes:
		return l.Attributes
	case RegionPerks:
		return l.Perks
	default:
		return 0
	}
}

// ResolveLayout locates the vitals marker, scans the inventory and derives
// the attributes and perks bases.
func ResolveLayout(s *Store, cat Catalog, log *zap.Logger) (Layout, error) {
	vitals, err := FindMarker(s, VitalsMarker)
	if err != nil {
		return Layout{}, err
	}
	scan, err := ScanInventory(s, vitals, cat, log)
	if err != nil {
		return Layout{}, fmt.Errorf("scan inventory from 0x%X: %w", vitals+inventoryGap, err)
	}
	l := Layout{
		Vitals:     vitals,
		Attributes: scan.Attributes,
		Perks:      scan.Attributes + perksDistance,
		Items:      scan.Records,
	}
	// At least the first perk slot has to fit or every perk access fails.
	if l.Perks+intWidth > s.Len() {
		return Layout{}, &RangeError{Offset: l.Perks, Width: intWidth, Len: s.Len()}
	}
	return l, nil
}
