package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/kaetram/mobengine/internal/game/rng"
)

// vm is one species' Lua state. LState is single-threaded, so every use holds mu.
type vm struct {
	mu sync.Mutex
	L  *lua.LState
}

// Manager owns one sandboxed LState per scripted species, loaded from
// <species>.lua files, and dispatches hook calls to them.
// All methods are safe for concurrent use.
type Manager struct {
	mu        sync.RWMutex
	vms       map[string]*vm
	apiVal    MobAPI
	instLimit int
	roller    *rng.Roller
	logger    *zap.Logger
}

// NewManager creates a Manager.
//
// Precondition: roller and logger must be non-nil; instLimit >= 0 (0 uses
// DefaultInstructionLimit).
// Postcondition: Returns a Manager with no species loaded.
func NewManager(roller *rng.Roller, instLimit int, logger *zap.Logger) *Manager {
	return &Manager{
		vms:       make(map[string]*vm),
		instLimit: instLimit,
		roller:    roller,
		logger:    logger,
	}
}

// SetAPI installs the mob.* callbacks. Scripts already loaded see the new
// callbacks on their next call.
func (m *Manager) SetAPI(api MobAPI) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apiVal = api
}

func (m *Manager) api() MobAPI {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.apiVal
}

// LoadDir loads every *.lua file in dir as the script of the species named by
// the file's base name.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns the loaded species in sorted order, or an error on the
// first failure; species loaded before the failure stay loaded.
func (m *Manager) LoadDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scripting: reading script dir %q: %w", dir, err)
	}

	var loaded []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".lua" {
			continue
		}
		species := strings.TrimSuffix(e.Name(), ".lua")
		if err := m.LoadFile(species, filepath.Join(dir, e.Name())); err != nil {
			return loaded, err
		}
		loaded = append(loaded, species)
	}
	sort.Strings(loaded)
	return loaded, nil
}

// LoadFile (re)loads the script for species from path, replacing any previous VM.
//
// Postcondition: On success the species VM is registered; on failure the
// previous VM, if any, is kept.
func (m *Manager) LoadFile(species, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("scripting: reading %q: %w", path, err)
	}
	return m.LoadString(species, string(src))
}

// LoadString (re)loads the script for species from source text.
func (m *Manager) LoadString(species, src string) error {
	L := NewSandboxedState()
	m.RegisterModules(L)

	release := WithBudget(L, m.instLimit)
	err := L.DoString(src)
	release()
	if err != nil {
		L.Close()
		return fmt.Errorf("scripting: loading script for %q: %w", species, err)
	}

	m.mu.Lock()
	old := m.vms[species]
	m.vms[species] = &vm{L: L}
	m.mu.Unlock()

	if old != nil {
		old.mu.Lock()
		old.L.Close()
		old.mu.Unlock()
	}
	m.logger.Info("species script loaded", zap.String("species", species))
	return nil
}

// Has reports whether species has a loaded script.
func (m *Manager) Has(species string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.vms[species]
	return ok
}

// Species returns the loaded species in sorted order.
func (m *Manager) Species() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.vms))
	for k := range m.vms {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// CallHook calls the named global function in species' VM. It returns
// (LNil, nil) if the species has no VM or the hook is not defined. Lua runtime
// errors, including an exhausted instruction budget, are logged at Warn level
// and never propagated.
//
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(species, hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.RLock()
	v, ok := m.vms[species]
	m.mu.RUnlock()
	if !ok {
		m.logger.Debug("scripting: no VM for species",
			zap.String("species", species),
			zap.String("hook", hook),
		)
		return lua.LNil, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	fn := v.L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	release := WithBudget(v.L, m.instLimit)
	defer release()
	if err := v.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("species", species),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := v.L.Get(-1)
	v.L.Pop(1)
	return ret, nil
}

// Close releases every VM.
func (m *Manager) Close() {
	m.mu.Lock()
	vms := m.vms
	m.vms = make(map[string]*vm)
	m.mu.Unlock()

	for _, v := range vms {
		v.mu.Lock()
		v.L.Close()
		v.mu.Unlock()
	}
}
