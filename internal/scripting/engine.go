package scripting

import (
	"encoding/hex"
	"fmt"
	"math"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/f2edit/editor/internal/savefile"
)

// Editor is the part of a save session scripts can reach.
type Editor interface {
	GetStat(name string) (int32, error)
	SetStat(name string, v int32) error
	GetSkill(name string) (int32, error)
	SetSkill(name string, v int32) error
	GetPerk(name string) (int32, error)
	SetPerk(name string, v int32) error
	GetInt(r savefile.Region, name string) (int32, error)
	SetInt(r savefile.Region, name string, v int32) error
	GetBytes(r savefile.Region, name string) ([]byte, error)
	SetBytes(r savefile.Region, name string, b []byte) error
	Text(name string) (string, error)
	SetText(name, text string) error
	Stats() []string
	Skills() []string
	Perks() []string
}

// Engine wraps a single gopher-lua VM bound to one editor.
// Single-goroutine access only, like the session it drives.
type Engine struct {
	vm  *lua.LState
	ed  Editor
	log *zap.Logger
}

// NewEngine creates a Lua VM with the edit API registered as globals.
func NewEngine(ed Editor, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, ed: ed, log: log}
	for name, fn := range map[string]lua.LGFunction{
		"get_stat":  e.getStat,
		"set_stat":  e.setStat,
		"get_skill": e.getSkill,
		"set_skill": e.setSkill,
		"get_perk":  e.getPerk,
		"set_perk":  e.setPerk,
		"get_field": e.getField,
		"set_field": e.setField,
		"stats":     e.names(ed.Stats),
		"skills":    e.names(ed.Skills),
		"perks":     e.names(ed.Perks),
		"log":       e.logMessage,
	} {
		vm.SetGlobal(name, vm.NewFunction(fn))
	}
	return e
}

// RunFile executes a script file.
func (e *Engine) RunFile(path string) error {
	e.log.Debug("running lua script", zap.String("file", path))
	if err := e.vm.DoFile(path); err != nil {
		return fmt.Errorf("run %s: %w", path, err)
	}
	return nil
}

// RunString executes a script given as source.
func (e *Engine) RunString(src string) error {
	if err := e.vm.DoString(src); err != nil {
		return fmt.Errorf("run script: %w", err)
	}
	return nil
}

// Close shuts the VM down.
func (e *Engine) Close() {
	e.vm.Close()
}

func (e *Engine) getStat(L *lua.LState) int {
	return pushInt(L, e.ed.GetStat, L.CheckString(1))
}

func (e *Engine) setStat(L *lua.LState) int {
	return applyInt(L, e.ed.SetStat, L.CheckString(1), checkInt32(L, 2))
}

func (e *Engine) getSkill(L *lua.LState) int {
	return pushInt(L, e.ed.GetSkill, L.CheckString(1))
}

func (e *Engine) setSkill(L *lua.LState) int {
	return applyInt(L, e.ed.SetSkill, L.CheckString(1), checkInt32(L, 2))
}

func (e *Engine) getPerk(L *lua.LState) int {
	return pushInt(L, e.ed.GetPerk, L.CheckString(1))
}

// set_perk(name [, rank]) with rank defaulting to 1.
func (e *Engine) setPerk(L *lua.LState) int {
	rank := int32(1)
	if L.GetTop() >= 2 {
		rank = checkInt32(L, 2)
	}
	return applyInt(L, e.ed.SetPerk, L.CheckString(1), rank)
}

// get_field(region, name): text fields come back as strings, other byte
// fields as hex, everything else as a number.
func (e *Engine) getField(L *lua.LState) int {
	r := checkRegion(L, 1)
	name := L.CheckString(2)
	var (
		v   lua.LValue
		err error
	)
	switch {
	case savefile.IsTextField(r, name):
		var s string
		s, err = e.ed.Text(name)
		v = lua.LString(s)
	case isBytesField(r, name):
		var b []byte
		b, err = e.ed.GetBytes(r, name)
		v = lua.LString(hex.EncodeToString(b))
	default:
		var n int32
		n, err = e.ed.GetInt(r, name)
		v = lua.LNumber(n)
	}
	if err != nil {
		L.RaiseError("%v", err)
		return 0
	}
	L.Push(v)
	return 1
}

func (e *Engine) setField(L *lua.LState) int {
	r := checkRegion(L, 1)
	name := L.CheckString(2)
	var err error
	switch {
	case savefile.IsTextField(r, name):
		err = e.ed.SetText(name, L.CheckString(3))
	case isBytesField(r, name):
		b, herr := hex.DecodeString(L.CheckString(3))
		if herr != nil {
			L.ArgError(3, "want hex bytes")
			return 0
		}
		err = e.ed.SetBytes(r, name, b)
	default:
		err = e.ed.SetInt(r, name, checkInt32(L, 3))
	}
	if err != nil {
		L.RaiseError("%v", err)
	}
	return 0
}

func isBytesField(r savefile.Region, name string) bool {
	spec, ok := savefile.LookupField(r, name)
	return ok && spec.Kind == savefile.KindBytes
}

func (e *Engine) names(list func() []string) lua.LGFunction {
	return func(L *lua.LState) int {
		t := L.NewTable()
		for _, n := range list() {
			t.Append(lua.LString(n))
		}
		L.Push(t)
		return 1
	}
}

func (e *Engine) logMessage(L *lua.LState) int {
	e.log.Info("script", zap.String("msg", L.CheckString(1)))
	return 0
}

func pushInt(L *lua.LState, get func(string) (int32, error), name string) int {
	v, err := get(name)
	if err != nil {
		L.RaiseError("%v", err)
		return 0
	}
	L.Push(lua.LNumber(v))
	return 1
}

func applyInt(L *lua.LState, set func(string, int32) error, name string, v int32) int {
	if err := set(name, v); err != nil {
		L.RaiseError("%v", err)
	}
	return 0
}

func checkInt32(L *lua.LState, n int) int32 {
	f := float64(L.CheckNumber(n))
	if f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		L.ArgError(n, fmt.Sprintf("%v is not a 32-bit integer", f))
		return 0
	}
	return int32(f)
}

func checkRegion(L *lua.LState, n int) savefile.Region {
	name := L.CheckString(n)
	r, ok := savefile.ParseRegion(name)
	if !ok {
		L.ArgError(n, fmt.Sprintf("unknown region %q", name))
	}
	return r
}
