package savefile

import (
	"fmt"
	"sort"
)

// Region is one of the save's addressable areas.
type Region int

const (
	RegionHeader Region = iota
	RegionVitals
	RegionAttributes
	RegionPerks
)

var regionNames = [...]string{
	RegionHeader:     "header",
	RegionVitals:     "vitals",
	RegionAttributes: "attributes",
	RegionPerks:      "perks",
}

func (r Region) String() string {
	if r < 0 || int(r) >= len(regionNames) {
		return fmt.Sprintf("Region(%d)", int(r))
	}
	return regionNames[r]
}

// Regions lists every region in layout order.
func Regions() []Region {
	return []Region{RegionHeader, RegionVitals, RegionAttributes, RegionPerks}
}

// ParseRegion maps a region name to its Region.
func ParseRegion(name string) (Region, bool) {
	for i, n := range regionNames {
		if n == name {
			return Region(i), true
		}
	}
	return 0, false
}

// FieldKind tells integer fields from raw byte ranges.
type FieldKind int

const (
	KindInt FieldKind = iota
	KindBytes
)

func (k FieldKind) String() string {
	if k == KindBytes {
		return "bytes"
	}
	return "int"
}

// FieldSpec locates a field relative to its region base.
type FieldSpec struct {
	Offset int
	Size   int
	Kind   FieldKind
}

func intField(off int) FieldSpec { return FieldSpec{Offset: off, Size: intWidth, Kind: KindInt} }

func bytesField(off, size int) FieldSpec { return FieldSpec{Offset: off, Size: size, Kind: KindBytes} }

var headerFields = map[string]FieldSpec{
	"name":     bytesField(0x1D, 0x20),
	"savename": bytesField(0x3D, 0x1E),
	"savetime": bytesField(0x5B, 0x02),
}

var vitalsFields = map[string]FieldSpec{
	"hp":     intField(0x74),
	"rad":    intField(0x78),
	"poison": intField(0x7C),
	"level":  intField(0x28),
}

var attributeFields = map[string]FieldSpec{
	"base_str":     intField(0x08),
	"base_per":     intField(0x0C),
	"base_end":     intField(0x10),
	"base_cha":     intField(0x14),
	"base_int":     intField(0x18),
	"base_agi":     intField(0x1C),
	"base_luc":     intField(0x20),
	"base_hp":      intField(0x24),
	"base_ap":      intField(0x28),
	"base_ac":      intField(0x2C),
	"melee_dam":    intField(0x34),
	"normal_thr":   intField(0x4C),
	"normal_res":   intField(0x68),
	"starting_age": intField(0x8C),
	"female":       intField(0x90),
	"bonus_m":      intField(0xC0),
	"skills":       intField(0x0120),
}

// textFields are the header fields holding code-page text. Other byte
// fields are binary.
var textFields = map[string]bool{"name": true, "savename": true}

// IsTextField reports whether r.name decodes as text through Text.
func IsTextField(r Region, name string) bool {
	return r == RegionHeader && textFields[name]
}

// skillsField is the start of the skill sub-table in the attributes region.
const skillsField = "skills"

// Stats are the seven primary stats, aliases for attributes "base_<stat>".
var Stats = []string{"str", "per", "end", "cha", "int", "agi", "luc"}

func statField(stat string) (string, bool) {
	for _, s := range Stats {
		if s == stat {
			return "base_" + stat, true
		}
	}
	return "", false
}

// fieldTable returns the static table for r. Perks have none.
func fieldTable(r Region) map[string]FieldSpec {
	switch r {
	case RegionHeader:
		return headerFields
	case RegionVitals:
		return vitalsFields
	case RegionAttributes:
		return attributeFields
	default:
		return nil
	}
}

// LookupField returns the spec for a named field in r.
func LookupField(r Region, name string) (FieldSpec, bool) {
	spec, ok := fieldTable(r)[name]
	return spec, ok
}

// FieldNames returns r's field names, sorted.
func FieldNames(r Region) []string {
	table := fieldTable(r)
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
