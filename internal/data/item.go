package data

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ItemCategory is the catalog section an item belongs to. The save format
// sizes inventory records by category, so the names matter.
type ItemCategory string

const (
	CategoryWeapons    ItemCategory = "weapons"
	CategoryArmor      ItemCategory = "armor"
	CategoryDrugs      ItemCategory = "drugs"
	CategoryAmmo       ItemCategory = "ammo"
	CategoryMisc       ItemCategory = "misc"
	CategoryContainers ItemCategory = "containers"
	CategoryKeys       ItemCategory = "keys"
)

// ItemInfo is one catalog entry.
type ItemInfo struct {
	ItemID   int32
	Name     string
	Category ItemCategory
}

// ItemCatalog maps item identifiers to their entry. Read-only once loaded.
type ItemCatalog struct {
	items map[int32]*ItemInfo
}

// NewItemCatalog builds a catalog from entries. Later duplicates replace
// earlier ones, matching how the list files have always been read.
func NewItemCatalog(items ...ItemInfo) *ItemCatalog {
	c := &ItemCatalog{items: make(map[int32]*ItemInfo, len(items))}
	for i := range items {
		it := items[i]
		c.items[it.ItemID] = &it
	}
	return c
}

// Get returns an item by ID, or nil if not found.
func (c *ItemCatalog) Get(itemID int32) *ItemInfo {
	return c.items[itemID]
}

// Category returns the item's category and whether the ID is known.
func (c *ItemCatalog) Category(itemID int32) (ItemCategory, bool) {
	it, ok := c.items[itemID]
	if !ok {
		return "", false
	}
	return it.Category, true
}

// Count returns total loaded items.
func (c *ItemCatalog) Count() int {
	return len(c.items)
}

// Sections returns item entries grouped by category, each sorted by ID.
func (c *ItemCatalog) Sections() map[ItemCategory][]ItemInfo {
	out := make(map[ItemCategory][]ItemInfo)
	for _, it := range c.items {
		out[it.Category] = append(out[it.Category], *it)
	}
	for _, list := range out {
		sort.Slice(list, func(i, j int) bool { return list[i].ItemID < list[j].ItemID })
	}
	return out
}

// --- YAML loading ---

type itemEntry struct {
	ItemID int32  `yaml:"item_id"`
	Name   string `yaml:"name"`
}

type itemCatalogFile struct {
	Sections map[string][]itemEntry `yaml:"sections"`
}

// itemCatalogDoc keeps the sections mapping as a node to preserve order.
type itemCatalogDoc struct {
	Sections yaml.Node `yaml:"sections"`
}

// LoadItemCatalog loads a catalog, choosing the parser by extension:
// .csv and .txt are the legacy sectioned list, anything else is YAML.
func LoadItemCatalog(path string) (*ItemCatalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read items: %w", err)
	}
	if isLegacyList(path) {
		return ParseLegacyItems(raw)
	}
	return ParseItemCatalog(raw)
}

// ParseItemCatalog parses the YAML catalog format. Sections are read in
// file order and a later entry for the same ID replaces an earlier one, so
// the category an ID ends up with never depends on map iteration.
func ParseItemCatalog(raw []byte) (*ItemCatalog, error) {
	var f itemCatalogDoc
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse items: %w", err)
	}
	c := &ItemCatalog{items: make(map[int32]*ItemInfo, 1024)}
	if f.Sections.Kind == 0 || f.Sections.Tag == "!!null" {
		return c, nil
	}
	if f.Sections.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse items: line %d: sections must be a mapping", f.Sections.Line)
	}
	content := f.Sections.Content
	for i := 0; i+1 < len(content); i += 2 {
		section := content[i].Value
		var entries []itemEntry
		if err := content[i+1].Decode(&entries); err != nil {
			return nil, fmt.Errorf("parse items: section %q: %w", section, err)
		}
		for _, e := range entries {
			c.items[e.ItemID] = &ItemInfo{
				ItemID:   e.ItemID,
				Name:     e.Name,
				Category: ItemCategory(section),
			}
		}
	}
	return c, nil
}

// ParseLegacyItems parses the old list format: a "[section]" line opens a
// category, following lines hold "id,name" pairs, several per line allowed.
func ParseLegacyItems(raw []byte) (*ItemCatalog, error) {
	c := &ItemCatalog{items: make(map[int32]*ItemInfo, 1024)}
	var section ItemCategory
	sc := bufio.NewScanner(bytes.NewReader(raw))
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "[") {
			section = ItemCategory(strings.TrimSuffix(line[1:], "]"))
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts)%2 != 0 {
			return nil, fmt.Errorf("parse items: line %d: odd field count: %q", lineNo, line)
		}
		for i := 0; i < len(parts); i += 2 {
			id, err := strconv.ParseInt(strings.TrimSpace(parts[i]), 10, 32)
			if err != nil {
				return nil, fmt.Errorf("parse items: line %d: bad id %q: %w", lineNo, parts[i], err)
			}
			c.items[int32(id)] = &ItemInfo{
				ItemID:   int32(id),
				Name:     strings.TrimSpace(parts[i+1]),
				Category: section,
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("parse items: %w", err)
	}
	return c, nil
}

// MarshalItemCatalog renders c in the YAML catalog format.
func MarshalItemCatalog(c *ItemCatalog) ([]byte, error) {
	f := itemCatalogFile{Sections: make(map[string][]itemEntry)}
	for cat, list := range c.Sections() {
		entries := make([]itemEntry, 0, len(list))
		for _, it := range list {
			entries = append(entries, itemEntry{ItemID: it.ItemID, Name: it.Name})
		}
		f.Sections[string(cat)] = entries
	}
	return yaml.Marshal(&f)
}

func isLegacyList(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return true
	}
	return false
}
