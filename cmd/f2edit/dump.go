package main

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/f2edit/editor/internal/savefile"
)

type dumpItem struct {
	Offset   int    `json:"offset"`
	ItemID   int32  `json:"item_id"`
	Name     string `json:"name,omitempty"`
	Category string `json:"category"`
	Amount   int32  `json:"amount"`
}

type dumpDoc struct {
	Path       string                      `json:"path"`
	Session    string                      `json:"session"`
	Vitals     int                         `json:"vitals"`
	Attributes int                         `json:"attributes"`
	Perks      int                         `json:"perks"`
	Header     map[string]string           `json:"header"`
	Fields     map[string]map[string]int32 `json:"fields"`
	Stats      map[string]int32            `json:"stats"`
	Skills     map[string]int32            `json:"skills"`
	PerkRanks  map[string]int32            `json:"perk_ranks"`
	Items      []dumpItem                  `json:"items"`
}

func (a *app) dumpCmd() *cli.Command {
	return &cli.Command{
		Name:  "dump",
		Usage: "Print the layout and every known value",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Emit JSON"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return a.withSave(ctx, cmd, false, func(h *saveHandle) error {
				doc, err := a.buildDump(h)
				if err != nil {
					return err
				}
				w := out(cmd)
				if cmd.Bool("json") {
					raw, err := json.MarshalIndent(doc, "", "  ")
					if err != nil {
						return err
					}
					_, err = fmt.Fprintln(w, string(raw))
					return err
				}
				printDump(w, doc)
				return nil
			})
		},
	}
}

func (a *app) buildDump(h *saveHandle) (*dumpDoc, error) {
	l := h.Layout()
	doc := &dumpDoc{
		Path:       h.Path(),
		Session:    h.ID().String(),
		Vitals:     l.Vitals,
		Attributes: l.Attributes,
		Perks:      l.Perks,
		Header:     map[string]string{},
		Fields:     map[string]map[string]int32{},
		Stats:      map[string]int32{},
		Skills:     map[string]int32{},
		PerkRanks:  map[string]int32{},
	}
	for _, r := range savefile.Regions() {
		for _, name := range savefile.FieldNames(r) {
			t := target{kind: "field", region: r, name: name}
			spec, _ := savefile.LookupField(r, name)
			if spec.Kind == savefile.KindBytes {
				s, err := getValue(h, t)
				if err != nil {
					return nil, err
				}
				doc.Header[name] = s
				continue
			}
			v, err := h.GetInt(r, name)
			if err != nil {
				return nil, err
			}
			if doc.Fields[r.String()] == nil {
				doc.Fields[r.String()] = map[string]int32{}
			}
			doc.Fields[r.String()][name] = v
		}
	}
	lists := []struct {
		names []string
		get   func(string) (int32, error)
		into  map[string]int32
	}{
		{h.Stats(), h.GetStat, doc.Stats},
		{h.Skills(), h.GetSkill, doc.Skills},
		{h.Perks(), h.GetPerk, doc.PerkRanks},
	}
	for _, list := range lists {
		for _, n := range list.names {
			v, err := list.get(n)
			if err != nil {
				return nil, err
			}
			list.into[n] = v
		}
	}
	for _, rec := range l.Items {
		it := dumpItem{Offset: rec.Offset, ItemID: rec.ItemID, Category: string(rec.Category), Amount: rec.Amount}
		if info := a.items.Get(rec.ItemID); info != nil {
			it.Name = info.Name
		}
		doc.Items = append(doc.Items, it)
	}
	return doc, nil
}

func printDump(w io.Writer, doc *dumpDoc) {
	fmt.Fprintf(w, "path        %s\nsession     %s\n", doc.Path, doc.Session)
	fmt.Fprintf(w, "vitals      0x%X\nattributes  0x%X\nperks       0x%X\n", doc.Vitals, doc.Attributes, doc.Perks)
	fmt.Fprintln(w, "\n[header]")
	for _, k := range sortedKeys(doc.Header) {
		fmt.Fprintf(w, "  %-22s %s\n", k, doc.Header[k])
	}
	for _, r := range savefile.Regions() {
		fields := doc.Fields[r.String()]
		if len(fields) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n[%s]\n", r)
		printValues(w, fields)
	}
	fmt.Fprintln(w, "\n[stats]")
	printValues(w, doc.Stats)
	fmt.Fprintln(w, "\n[skills]")
	printValues(w, doc.Skills)
	fmt.Fprintln(w, "\n[perks]")
	printValues(w, doc.PerkRanks)
	fmt.Fprintf(w, "\n[inventory] %d records\n", len(doc.Items))
	for _, it := range doc.Items {
		fmt.Fprintf(w, "  0x%06X %6d %-11s x%d %s\n", it.Offset, it.ItemID, it.Category, it.Amount, it.Name)
	}
}

func printValues(w io.Writer, m map[string]int32) {
	for _, k := range sortedKeys(m) {
		fmt.Fprintf(w, "  %-22s %d\n", k, m[k])
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
