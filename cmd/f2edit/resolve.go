package main

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/f2edit/editor/internal/savefile"
)

var errAmbiguous = errors.New("ambiguous name")

// resolveName expands a unique prefix of one of names. An exact match
// always wins. Input that matches nothing comes back unchanged so the
// session reports the lookup failure with its usual error.
func resolveName(input string, names []string) (string, error) {
	var matches []string
	for _, n := range names {
		if n == input {
			return n, nil
		}
		if strings.HasPrefix(n, input) {
			matches = append(matches, n)
		}
	}
	switch len(matches) {
	case 0:
		return input, nil
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%w %q: %s", errAmbiguous, input, strings.Join(matches, ", "))
	}
}

// target is what get and set operate on.
type target struct {
	kind   string // stat, skill, perk or field
	region savefile.Region
	name   string
}

func (t target) String() string {
	if t.kind == "field" {
		return t.region.String() + "." + t.name
	}
	return t.name
}

var targetKinds = []string{"stat", "skill", "perk", "field"}

// parseTarget resolves a kind word and a name against the session's
// tables. Field names are written region.name.
func parseTarget(ed nameSource, kind, name string) (target, error) {
	kind, err := resolveName(kind, targetKinds)
	if err != nil {
		return target{}, err
	}
	t := target{kind: kind}
	switch kind {
	case "stat":
		t.name, err = resolveName(name, ed.Stats())
	case "skill":
		t.name, err = resolveName(name, ed.Skills())
	case "perk":
		t.name, err = resolveName(name, ed.Perks())
	case "field":
		regionName, fieldName, ok := strings.Cut(name, ".")
		if !ok {
			return target{}, fmt.Errorf("field %q: want region.name", name)
		}
		r, ok := savefile.ParseRegion(regionName)
		if !ok {
			return target{}, fmt.Errorf("field %q: unknown region %q", name, regionName)
		}
		t.region = r
		t.name, err = resolveName(fieldName, savefile.FieldNames(r))
	default:
		return target{}, fmt.Errorf("unknown kind %q (want one of %s)", kind, strings.Join(targetKinds, ", "))
	}
	return t, err
}

type nameSource interface {
	Stats() []string
	Skills() []string
	Perks() []string
}

// parseValue accepts non-negative 32-bit decimal or 0x-prefixed hex.
func parseValue(s string) (int32, error) {
	v, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("value %q: not an integer", s)
	}
	if v < 0 {
		return 0, fmt.Errorf("value %d: must not be negative", v)
	}
	if v > math.MaxInt32 {
		return 0, fmt.Errorf("value %d: exceeds 32 bits", v)
	}
	return int32(v), nil
}
