// Package scripting wraps a gopher-lua VM for server-side content logic:
// dialog branch predicates and spawn hooks live in Lua so designers can
// change quest conditions without a server rebuild.
package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single Lua VM. Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given
// directory tree. Missing subdirectories are skipped.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	for _, sub := range []string{"core", "dialog", "spawn"} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}

	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

func (e *Engine) Close() {
	e.vm.Close()
}

// EvalPredicate calls the named global Lua function with a table built from
// env and interprets the result as a boolean. Implements dialog.Evaluator.
func (e *Engine) EvalPredicate(name string, env map[string]any) (bool, error) {
	fn := e.vm.GetGlobal(name)
	if fn.Type() != lua.LTFunction {
		return false, fmt.Errorf("predicate %q is not a lua function", name)
	}

	tbl := e.vm.NewTable()
	for k, v := range env {
		tbl.RawSetString(k, toLua(e.vm, v))
	}

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, tbl); err != nil {
		return false, fmt.Errorf("call %q: %w", name, err)
	}

	ret := e.vm.Get(-1)
	e.vm.Pop(1)
	return lua.LVAsBool(ret), nil
}

// HasFunction reports whether a global Lua function with the given name is
// defined. Used by the dialog linter and spawn hooks.
func (e *Engine) HasFunction(name string) bool {
	return e.vm.GetGlobal(name).Type() == lua.LTFunction
}

// CallSpawnHook invokes an optional per-template spawn hook
// (on_spawn_<template>, with the template name lowercased and
// non-identifier characters folded to underscores). Missing hooks are
// not an error.
func (e *Engine) CallSpawnHook(template string, env map[string]any) error {
	name := "on_spawn_" + hookIdent(template)
	fn := e.vm.GetGlobal(name)
	if fn.Type() != lua.LTFunction {
		return nil
	}

	tbl := e.vm.NewTable()
	for k, v := range env {
		tbl.RawSetString(k, toLua(e.vm, v))
	}

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, tbl); err != nil {
		return fmt.Errorf("call %q: %w", name, err)
	}
	return nil
}

// hookIdent folds a display name into a Lua identifier fragment:
// "Town Guard" becomes "town_guard".
func hookIdent(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}

func toLua(vm *lua.LState, v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(x)
	case int:
		return lua.LNumber(x)
	case int16:
		return lua.LNumber(x)
	case int32:
		return lua.LNumber(x)
	case int64:
		return lua.LNumber(x)
	case uint16:
		return lua.LNumber(x)
	case float32:
		return lua.LNumber(x)
	case float64:
		return lua.LNumber(x)
	case string:
		return lua.LString(x)
	case map[int32]int32: // item template id → count
		tbl := vm.NewTable()
		for k, v := range x {
			tbl.RawSetInt(int(k), lua.LNumber(v))
		}
		return tbl
	default:
		return lua.LString(fmt.Sprintf("%v", x))
	}
}
