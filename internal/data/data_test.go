package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseItemCatalog(t *testing.T) {
	t.Parallel()

	raw := []byte(`
sections:
  weapons:
    - item_id: 4
      name: Knife
    - item_id: 8
      name: 10mm Pistol
  armor:
    - item_id: 74
      name: Leather Jacket
  drugs:
    - item_id: 40
      name: Stimpak
`)
	c, err := ParseItemCatalog(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Count() != 4 {
		t.Fatalf("count: got %d want 4", c.Count())
	}
	cat, ok := c.Category(8)
	if !ok || cat != CategoryWeapons {
		t.Fatalf("category(8): got %q, %v", cat, ok)
	}
	if it := c.Get(74); it == nil || it.Name != "Leather Jacket" || it.Category != CategoryArmor {
		t.Fatalf("get(74): got %+v", it)
	}
	if _, ok := c.Category(9999); ok {
		t.Fatalf("category(9999): expected unknown")
	}
}

func TestParseItemCatalogDuplicateFollowsFileOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want ItemCategory
	}{
		{"sections:\n  weapons: [{item_id: 5, name: Spear}]\n  armor: [{item_id: 5, name: Vest}]\n", CategoryArmor},
		{"sections:\n  armor: [{item_id: 5, name: Vest}]\n  weapons: [{item_id: 5, name: Spear}]\n", CategoryWeapons},
	}
	for _, tt := range tests {
		// Repeat so a map-order dependency would show up.
		for i := 0; i < 50; i++ {
			c, err := ParseItemCatalog([]byte(tt.raw))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if cat, _ := c.Category(5); cat != tt.want {
				t.Fatalf("run %d: category(5): got %q want %q", i, cat, tt.want)
			}
		}
	}
}

func TestParseItemCatalogRejectsBadSections(t *testing.T) {
	t.Parallel()

	if _, err := ParseItemCatalog([]byte("sections: [1, 2]\n")); err == nil {
		t.Fatalf("sequence sections: expected error")
	}
	if _, err := ParseItemCatalog([]byte("sections:\n  weapons: {item_id: 1}\n")); err == nil {
		t.Fatalf("mapping section body: expected error")
	}
	c, err := ParseItemCatalog([]byte("sections:\n"))
	if err != nil || c.Count() != 0 {
		t.Fatalf("empty sections: got %v, %v", c, err)
	}
}

func TestParseLegacyItems(t *testing.T) {
	t.Parallel()

	raw := []byte(`[weapons]
4,Knife,8,10mm Pistol

[armor]
74,Leather Jacket
[misc]
  41,Rope
`)
	c, err := ParseLegacyItems(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := map[ItemCategory][]ItemInfo{
		CategoryWeapons: {
			{ItemID: 4, Name: "Knife", Category: CategoryWeapons},
			{ItemID: 8, Name: "10mm Pistol", Category: CategoryWeapons},
		},
		CategoryArmor: {{ItemID: 74, Name: "Leather Jacket", Category: CategoryArmor}},
		CategoryMisc:  {{ItemID: 41, Name: "Rope", Category: CategoryMisc}},
	}
	if diff := cmp.Diff(want, c.Sections()); diff != "" {
		t.Fatalf("sections (-want +got):\n%s", diff)
	}
}

func TestParseLegacyItemsRejectsOddLine(t *testing.T) {
	t.Parallel()

	if _, err := ParseLegacyItems([]byte("[weapons]\n4,Knife,8\n")); err == nil {
		t.Fatalf("expected error for odd field count")
	}
	if _, err := ParseLegacyItems([]byte("[weapons]\nfour,Knife\n")); err == nil {
		t.Fatalf("expected error for non-numeric id")
	}
}

func TestItemCatalogYAMLRoundTrip(t *testing.T) {
	t.Parallel()

	legacy, err := ParseLegacyItems([]byte("[weapons]\n4,Knife\n[drugs]\n40,Stimpak,53,Mentats\n"))
	if err != nil {
		t.Fatalf("parse legacy: %v", err)
	}
	out, err := MarshalItemCatalog(legacy)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	back, err := ParseItemCatalog(out)
	if err != nil {
		t.Fatalf("parse yaml: %v", err)
	}
	if diff := cmp.Diff(legacy.Sections(), back.Sections()); diff != "" {
		t.Fatalf("sections (-legacy +yaml):\n%s", diff)
	}
}

func TestNameTables(t *testing.T) {
	t.Parallel()

	skills, err := ParseNameTable("skills", []byte(`
skills:
  - index: 0
    name: small_guns
  - index: 9
    name: lockpick
`))
	if err != nil {
		t.Fatalf("parse skills: %v", err)
	}
	if idx, ok := skills.Index("lockpick"); !ok || idx != 9 {
		t.Fatalf("lockpick: got %d, %v", idx, ok)
	}
	if diff := cmp.Diff([]string{"lockpick", "small_guns"}, skills.Names()); diff != "" {
		t.Fatalf("names (-want +got):\n%s", diff)
	}

	perks, err := ParseLegacyNames("perks", []byte("00,awareness\n0x2B,toughness\n1F,bonus_move\n"))
	if err != nil {
		t.Fatalf("parse perks: %v", err)
	}
	if idx, ok := perks.Index("toughness"); !ok || idx != 0x2B {
		t.Fatalf("toughness: got %d, %v", idx, ok)
	}
	if idx, ok := perks.Index("bonus_move"); !ok || idx != 0x1F {
		t.Fatalf("bonus_move: got %d, %v", idx, ok)
	}

	out, err := MarshalNameTable(perks)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	back, err := ParseNameTable("perks", out)
	if err != nil {
		t.Fatalf("parse marshalled: %v", err)
	}
	if back.Count() != 3 {
		t.Fatalf("round trip count: got %d want 3", back.Count())
	}

	if _, err := ParseNameTable("skills", []byte("skills:\n  - index: -1\n    name: bad\n")); err == nil {
		t.Fatalf("expected error for negative index")
	}
	if _, err := ParseLegacyNames("skills", []byte("zz,bad\n")); err == nil {
		t.Fatalf("expected error for bad hex")
	}
}

func TestLoadPicksParserByExtension(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	csvPath := filepath.Join(dir, "f2items.csv")
	if err := os.WriteFile(csvPath, []byte("[armor]\n74,Leather Jacket\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := LoadItemCatalog(csvPath)
	if err != nil {
		t.Fatalf("load csv: %v", err)
	}
	if cat, _ := c.Category(74); cat != CategoryArmor {
		t.Fatalf("csv category: got %q", cat)
	}

	yamlPath := filepath.Join(dir, "skills.yaml")
	if err := os.WriteFile(yamlPath, []byte("skills:\n  - index: 3\n    name: sneak\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	skills, err := LoadSkillTable(yamlPath)
	if err != nil {
		t.Fatalf("load yaml: %v", err)
	}
	if idx, ok := skills.Index("sneak"); !ok || idx != 3 {
		t.Fatalf("sneak: got %d, %v", idx, ok)
	}

	if _, err := LoadPerkTable(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
