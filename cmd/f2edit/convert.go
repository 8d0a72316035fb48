package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/f2edit/editor/internal/data"
)

// convertCmd turns the legacy plain-text lists into the YAML tables the
// editor loads by default.
func convertCmd() *cli.Command {
	return &cli.Command{
		Name:  "convert",
		Usage: "Convert a legacy item, skill or perk list to YAML",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "kind",
				Usage:    "items|skills|perks",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"in"},
				Usage:    "Legacy list file",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"out"},
				Usage:   "Output .yaml path (stdout when empty)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			raw, err := os.ReadFile(cmd.String("input"))
			if err != nil {
				return err
			}
			yamlOut, err := convertLegacy(cmd.String("kind"), raw)
			if err != nil {
				return err
			}
			if path := cmd.String("output"); path != "" {
				return os.WriteFile(path, yamlOut, 0o644)
			}
			_, err = out(cmd).Write(yamlOut)
			return err
		},
	}
}

func convertLegacy(kind string, raw []byte) ([]byte, error) {
	switch kind {
	case "items":
		c, err := data.ParseLegacyItems(raw)
		if err != nil {
			return nil, err
		}
		return data.MarshalItemCatalog(c)
	case "skills", "perks":
		t, err := data.ParseLegacyNames(kind, raw)
		if err != nil {
			return nil, err
		}
		return data.MarshalNameTable(t)
	default:
		return nil, fmt.Errorf("convert: unknown kind %q (want items, skills or perks)", kind)
	}
}
