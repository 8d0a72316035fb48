package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/f2edit/editor/internal/backup"
	"github.com/f2edit/editor/internal/persist"
	"github.com/f2edit/editor/internal/savefile"
	"github.com/f2edit/editor/internal/scripting"
)

func out(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func (a *app) slotsCmd() *cli.Command {
	return &cli.Command{
		Name:  "slots",
		Usage: "List save slots in the saves directory",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			entries, err := os.ReadDir(a.cfg.Saves.Dir)
			if err != nil {
				return fmt.Errorf("read saves dir: %w", err)
			}
			w := out(cmd)
			for _, e := range entries {
				if !e.IsDir() {
					continue
				}
				path := filepath.Join(a.cfg.Saves.Dir, e.Name(), a.cfg.Saves.FileName)
				info, err := os.Stat(path)
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "%-10s %8d  %s\n", e.Name(), info.Size(), info.ModTime().Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func (a *app) infoCmd() *cli.Command {
	return &cli.Command{
		Name:  "info",
		Usage: "Show save name, character and resolved layout",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return a.withSave(ctx, cmd, false, func(h *saveHandle) error {
				w := out(cmd)
				for _, name := range []string{"savename", "name"} {
					s, err := h.Text(name)
					if err != nil {
						return err
					}
					fmt.Fprintf(w, "%-12s %s\n", name, s)
				}
				l := h.Layout()
				fmt.Fprintf(w, "%-12s %s\n", "path", h.Path())
				fmt.Fprintf(w, "%-12s 0x%X\n", "vitals", l.Vitals)
				fmt.Fprintf(w, "%-12s 0x%X\n", "attributes", l.Attributes)
				fmt.Fprintf(w, "%-12s 0x%X\n", "perks", l.Perks)
				fmt.Fprintf(w, "%-12s %d\n", "items", len(l.Items))
				return nil
			})
		},
	}
}

// listCmd prints every stat, skill or perk with its value.
func (a *app) listCmd(kind, usage string) *cli.Command {
	return &cli.Command{
		Name:  kind,
		Usage: usage,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return a.withSave(ctx, cmd, false, func(h *saveHandle) error {
				return printList(out(cmd), h, kind)
			})
		},
	}
}

func printList(w io.Writer, h *saveHandle, kind string) error {
	var (
		names []string
		get   func(string) (int32, error)
	)
	switch kind {
	case "stats":
		names, get = h.Stats(), h.GetStat
	case "skills":
		names, get = h.Skills(), h.GetSkill
	case "perks":
		names, get = h.Perks(), h.GetPerk
	default:
		return fmt.Errorf("unknown list %q", kind)
	}
	for _, n := range names {
		v, err := get(n)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%-24s %d\n", n, v)
	}
	return nil
}

func (a *app) inventoryCmd() *cli.Command {
	return &cli.Command{
		Name:  "inventory",
		Usage: "List inventory records found by the layout scan",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return a.withSave(ctx, cmd, false, func(h *saveHandle) error {
				w := out(cmd)
				for _, rec := range h.Layout().Items {
					name := "?"
					if it := a.items.Get(rec.ItemID); it != nil {
						name = it.Name
					}
					fmt.Fprintf(w, "0x%06X  %6d  %-11s x%-5d %s\n", rec.Offset, rec.ItemID, rec.Category, rec.Amount, name)
				}
				return nil
			})
		},
	}
}

func (a *app) getCmd() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Print one value",
		ArgsUsage: "<stat|skill|perk|field> <name>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 2 {
				return fmt.Errorf("get: want 2 arguments, got %d", cmd.Args().Len())
			}
			return a.withSave(ctx, cmd, false, func(h *saveHandle) error {
				t, err := parseTarget(h, cmd.Args().Get(0), cmd.Args().Get(1))
				if err != nil {
					return err
				}
				v, err := getValue(h, t)
				if err != nil {
					return err
				}
				fmt.Fprintln(out(cmd), v)
				return nil
			})
		},
	}
}

func (a *app) setCmd() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Write one value",
		ArgsUsage: "<stat|skill|perk|field> <name> <value>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 3 {
				return fmt.Errorf("set: want 3 arguments, got %d", cmd.Args().Len())
			}
			return a.withSave(ctx, cmd, true, func(h *saveHandle) error {
				t, err := parseTarget(h, cmd.Args().Get(0), cmd.Args().Get(1))
				if err != nil {
					return err
				}
				if err := setValue(h, t, cmd.Args().Get(2)); err != nil {
					return err
				}
				a.log.Info("value written", zap.String("kind", t.kind), zap.Stringer("name", t))
				return nil
			})
		},
	}
}

// getValue renders a target. Header text fields decode to strings and
// other byte fields print as hex.
func getValue(h *saveHandle, t target) (string, error) {
	var (
		v   int32
		err error
	)
	switch t.kind {
	case "stat":
		v, err = h.GetStat(t.name)
	case "skill":
		v, err = h.GetSkill(t.name)
	case "perk":
		v, err = h.GetPerk(t.name)
	case "field":
		spec, ok := savefile.LookupField(t.region, t.name)
		switch {
		case savefile.IsTextField(t.region, t.name):
			return h.Text(t.name)
		case ok && spec.Kind == savefile.KindBytes:
			raw, err := h.GetBytes(t.region, t.name)
			return hex.EncodeToString(raw), err
		}
		v, err = h.GetInt(t.region, t.name)
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprint(v), nil
}

func setValue(h *saveHandle, t target, raw string) error {
	if t.kind == "field" {
		spec, ok := savefile.LookupField(t.region, t.name)
		switch {
		case savefile.IsTextField(t.region, t.name):
			return h.SetText(t.name, raw)
		case ok && spec.Kind == savefile.KindBytes:
			b, err := hex.DecodeString(raw)
			if err != nil {
				return fmt.Errorf("value %q: want hex bytes", raw)
			}
			return h.SetBytes(t.region, t.name, b)
		}
	}
	v, err := parseValue(raw)
	if err != nil {
		return err
	}
	switch t.kind {
	case "stat":
		return h.SetStat(t.name, v)
	case "skill":
		return h.SetSkill(t.name, v)
	case "perk":
		return h.SetPerk(t.name, v)
	default:
		return h.SetInt(t.region, t.name, v)
	}
}

func (a *app) scriptCmd() *cli.Command {
	return &cli.Command{
		Name:      "script",
		Usage:     "Run a Lua edit script against the save",
		ArgsUsage: "<file.lua>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("script: want 1 argument, got %d", cmd.Args().Len())
			}
			return a.withSave(ctx, cmd, true, func(h *saveHandle) error {
				engine := scripting.NewEngine(h.Session, a.log)
				defer engine.Close()
				return engine.RunFile(cmd.Args().First())
			})
		},
	}
}

func (a *app) historyCmd() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show journaled edits of the save, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Maximum entries", Value: 20},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if !a.cfg.Journal.Enabled {
				return fmt.Errorf("history: journal is disabled ([journal] enabled = false)")
			}
			path, err := a.savePath(cmd)
			if err != nil {
				return err
			}
			db, err := a.openJournal(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			entries, err := persist.NewJournalRepo(db).Recent(ctx, path, int(cmd.Int("limit")))
			if err != nil {
				return err
			}
			w := out(cmd)
			for _, e := range entries {
				fmt.Fprintf(w, "%s  %-5s %-10s %-20s 0x%06X  %s -> %s\n",
					e.CreatedAt.Format("2006-01-02 15:04:05"), e.Kind, e.Region, e.Name, e.Offset,
					hex.EncodeToString(e.Old), hex.EncodeToString(e.New))
			}
			return nil
		},
	}
}

func (a *app) restoreCmd() *cli.Command {
	return &cli.Command{
		Name:  "restore",
		Usage: "Copy the backup back over the save",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := a.savePath(cmd)
			if err != nil {
				return err
			}
			d, err := backup.Restore(path, a.cfg.Backup.Suffix)
			if err != nil {
				return err
			}
			a.log.Info("save restored", zap.String("path", path), zap.Stringer("digest", d))
			return nil
		},
	}
}
