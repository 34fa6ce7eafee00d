// Package script runs component and system callbacks written in Lua.
package script

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"unsafe"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/edwinsyarief/katachi"
)

// Engine wraps a single gopher-lua VM. Global Lua functions are exposed as
// katachi callbacks through the config.Callbacks methods Component, Update
// and Hook. Single-goroutine access only, the same goroutine that drives
// RunSystems.
type Engine struct {
	vm     *lua.LState
	ctx    *katachi.Context
	log    *zap.Logger
	loaded []string
}

// NewEngine creates a Lua engine bound to ctx and loads every script in
// scriptsDir. An empty scriptsDir loads nothing.
func NewEngine(ctx *katachi.Context, scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, ctx: ctx, log: log}
	e.registerTypes()

	if scriptsDir != "" {
		if err := e.loadDir(scriptsDir); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load scripts: %w", err)
		}
	}
	return e, nil
}

// loadDir runs the *.lua files directly inside dir in lexical order, so a
// script may rely on globals defined by one whose name sorts before it. A
// missing directory loads nothing.
func (e *Engine) loadDir(dir string) error {
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		e.log.Warn("scripts directory not found", zap.String("dir", dir))
		return nil
	}
	paths, err := filepath.Glob(filepath.Join(dir, "*.lua"))
	if err != nil {
		return err
	}
	slices.Sort(paths)
	for _, path := range paths {
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.loaded = append(e.loaded, filepath.Base(path))
	}
	e.log.Debug("lua scripts loaded", zap.String("dir", dir), zap.Strings("files", e.loaded))
	return nil
}

// Loaded returns the base names of the script files run so far, in load
// order.
func (e *Engine) Loaded() []string { return slices.Clone(e.loaded) }

// LoadString runs a chunk of Lua source, typically to define callbacks.
func (e *Engine) LoadString(src string) error {
	return e.vm.DoString(src)
}

// Close releases the VM.
func (e *Engine) Close() {
	e.vm.Close()
}

func (e *Engine) function(name string) (*lua.LFunction, bool) {
	fn, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	return fn, ok
}

func (e *Engine) call(name string, fn *lua.LFunction, args ...lua.LValue) {
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, args...); err != nil {
		e.log.Error("lua callback error", zap.String("fn", name), zap.Error(err))
	}
}

func (e *Engine) userdata(typeName string, v any) *lua.LUserData {
	ud := e.vm.NewUserData()
	ud.Value = v
	e.vm.SetMetatable(ud, e.vm.GetTypeMetatable(typeName))
	return ud
}

// Component returns the Lua global name as a component initializer or
// cleanup. The Lua function is called as fn(slot, component_name).
func (e *Engine) Component(name string) (katachi.ComponentFn, bool) {
	fn, ok := e.function(name)
	if !ok {
		return nil, false
	}
	return func(_ katachi.Entity, c unsafe.Pointer, udata any) {
		component, _ := udata.(string)
		size, ok := e.ctx.ComponentSize(component)
		if !ok {
			e.log.Error("lua component callback without component size",
				zap.String("fn", name), zap.String("component", component))
			return
		}
		ref := &slotRef{data: unsafe.Slice((*byte)(c), size), live: true}
		e.call(name, fn, e.userdata(slotTypeName, ref), lua.LString(component))
		ref.live = false
	}, true
}

// Update returns the Lua global name as a system update, called as
// fn(list, count, system_name).
func (e *Engine) Update(name string) (katachi.SystemUpdateFn, bool) {
	fn, ok := e.function(name)
	if !ok {
		return nil, false
	}
	return func(list katachi.ComponentList, count int, udata any) {
		ref := &listRef{list: list, live: true}
		e.call(name, fn, e.userdata(listTypeName, ref), lua.LNumber(count), luaValue(udata))
		ref.live = false
	}, true
}

// Hook returns the Lua global name as a pre or post update hook, called as
// fn(system_name).
func (e *Engine) Hook(name string) (katachi.SystemHookFn, bool) {
	fn, ok := e.function(name)
	if !ok {
		return nil, false
	}
	return func(udata any) {
		e.call(name, fn, luaValue(udata))
	}, true
}

func luaValue(v any) lua.LValue {
	switch v := v.(type) {
	case string:
		return lua.LString(v)
	case int:
		return lua.LNumber(v)
	case float64:
		return lua.LNumber(v)
	case bool:
		return lua.LBool(v)
	default:
		return lua.LNil
	}
}
