package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/f2edit/editor/internal/savefile"
)

const shellPrompt = "f2edit> "

var shellCommands = []string{"stats", "skills", "perks", "set_stat", "set_skill", "set_perk", "help", "exit"}

const shellHelp = `commands:
  stats | skills | perks         list values
  set_stat <name> <value>        write a primary stat
  set_skill <name> <value>       write a skill
  set_perk <name> [rank]         grant a perk (rank defaults to 1)
  help                           this text
  exit                           leave the shell
commands and names accept any unique prefix`

func (a *app) shellCmd() *cli.Command {
	return &cli.Command{
		Name:  "shell",
		Usage: "Interactive edit loop",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			in := cmd.Root().Reader
			if in == nil {
				in = os.Stdin
			}
			return a.withSave(ctx, cmd, true, func(h *saveHandle) error {
				return runShell(ctx, h, in, out(cmd))
			})
		},
	}
}

// runShell reads commands until exit or end of input. Lookup mistakes are
// printed and the loop goes on; anything else ends it.
func runShell(ctx context.Context, h *saveHandle, in io.Reader, w io.Writer) error {
	sc := bufio.NewScanner(in)
	fmt.Fprint(w, shellPrompt)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		fields := strings.Fields(sc.Text())
		if len(fields) > 0 {
			done, err := shellExec(h, w, fields)
			if done {
				return nil
			}
			if err != nil {
				if !savefile.IsNotFound(err) && !isUsageError(err) {
					return err
				}
				fmt.Fprintf(w, "error: %v\n", err)
			}
		}
		fmt.Fprint(w, shellPrompt)
	}
	return sc.Err()
}

type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

func isUsageError(err error) bool {
	var ue *usageError
	return errors.As(err, &ue)
}

func shellExec(h *saveHandle, w io.Writer, fields []string) (bool, error) {
	name, err := resolveName(fields[0], shellCommands)
	if err != nil {
		return false, usagef("%v", err)
	}
	args := fields[1:]
	switch name {
	case "exit":
		return true, nil
	case "help":
		fmt.Fprintln(w, shellHelp)
		return false, nil
	case "stats", "skills", "perks":
		return false, printList(w, h, name)
	case "set_stat", "set_skill", "set_perk":
		kind := strings.TrimPrefix(name, "set_")
		if len(args) == 1 && kind == "perk" {
			args = append(args, "1")
		}
		if len(args) != 2 {
			return false, usagef("%s: want <name> <value>", name)
		}
		t, err := parseTarget(h, kind, args[0])
		if err != nil {
			return false, usagef("%v", err)
		}
		v, err := parseValue(args[1])
		if err != nil {
			return false, usagef("%v", err)
		}
		if err := setValue(h, t, fmt.Sprint(v)); err != nil {
			return false, err
		}
		fmt.Fprintf(w, "%s = %d\n", t, v)
		return false, nil
	default:
		return false, usagef("unknown command %q (try help)", fields[0])
	}
}
