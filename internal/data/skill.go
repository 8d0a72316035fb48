package data

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// NameTable maps a human-readable name to its slot index in a save table.
// Skills and perks share the shape: the byte offset is index * 4.
type NameTable struct {
	kind    string
	byName  map[string]int
	ordered []string
}

// NewNameTable builds a table of the given kind ("skills", "perks").
func NewNameTable(kind string, entries map[string]int) *NameTable {
	t := &NameTable{kind: kind, byName: make(map[string]int, len(entries))}
	for name, idx := range entries {
		t.byName[name] = idx
	}
	t.sortNames()
	return t
}

// Kind returns the table's kind.
func (t *NameTable) Kind() string {
	return t.kind
}

// Index returns the slot index for name.
func (t *NameTable) Index(name string) (int, bool) {
	idx, ok := t.byName[name]
	return idx, ok
}

// Names returns all names, sorted.
func (t *NameTable) Names() []string {
	return append([]string(nil), t.ordered...)
}

// Count returns the number of names.
func (t *NameTable) Count() int {
	return len(t.byName)
}

func (t *NameTable) sortNames() {
	t.ordered = make([]string, 0, len(t.byName))
	for name := range t.byName {
		t.ordered = append(t.ordered, name)
	}
	sort.Strings(t.ordered)
}

// --- YAML loading ---

type nameEntry struct {
	Index int    `yaml:"index"`
	Name  string `yaml:"name"`
}

type nameListFile struct {
	Skills []nameEntry `yaml:"skills,omitempty"`
	Perks  []nameEntry `yaml:"perks,omitempty"`
}

// LoadSkillTable loads skill names from YAML or a legacy list.
func LoadSkillTable(path string) (*NameTable, error) {
	return loadNameTable("skills", path)
}

// LoadPerkTable loads perk names from YAML or a legacy list.
func LoadPerkTable(path string) (*NameTable, error) {
	return loadNameTable("perks", path)
}

func loadNameTable(kind, path string) (*NameTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", kind, err)
	}
	if isLegacyList(path) {
		return ParseLegacyNames(kind, raw)
	}
	return ParseNameTable(kind, raw)
}

// ParseNameTable parses a YAML list under the "skills" or "perks" key.
func ParseNameTable(kind string, raw []byte) (*NameTable, error) {
	var f nameListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", kind, err)
	}
	entries := f.Skills
	if kind == "perks" {
		entries = f.Perks
	}
	t := &NameTable{kind: kind, byName: make(map[string]int, len(entries))}
	for _, e := range entries {
		if e.Index < 0 {
			return nil, fmt.Errorf("parse %s: %q has negative index %d", kind, e.Name, e.Index)
		}
		t.byName[e.Name] = e.Index
	}
	t.sortNames()
	return t, nil
}

// ParseLegacyNames parses "hexindex,name" lines.
func ParseLegacyNames(kind string, raw []byte) (*NameTable, error) {
	t := &NameTable{kind: kind, byName: make(map[string]int, 128)}
	sc := bufio.NewScanner(bytes.NewReader(raw))
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		idxStr, name, ok := strings.Cut(line, ",")
		if !ok {
			return nil, fmt.Errorf("parse %s: line %d: missing comma: %q", kind, lineNo, line)
		}
		idx, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimSpace(idxStr), "0x"), 16, 16)
		if err != nil {
			return nil, fmt.Errorf("parse %s: line %d: bad index %q: %w", kind, lineNo, idxStr, err)
		}
		t.byName[strings.TrimSpace(name)] = int(idx)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("parse %s: %w", kind, err)
	}
	t.sortNames()
	return t, nil
}

// MarshalNameTable renders t in the YAML format, ordered by index.
func MarshalNameTable(t *NameTable) ([]byte, error) {
	entries := make([]nameEntry, 0, len(t.byName))
	for name, idx := range t.byName {
		entries = append(entries, nameEntry{Index: idx, Name: name})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Index != entries[j].Index {
			return entries[i].Index < entries[j].Index
		}
		return entries[i].Name < entries[j].Name
	})
	var f nameListFile
	if t.kind == "perks" {
		f.Perks = entries
	} else {
		f.Skills = entries
	}
	return yaml.Marshal(&f)
}
