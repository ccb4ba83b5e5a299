package scripting

import (
	lua "github.com/yuin/gopher-lua"
)

// MobAPI is the set of callbacks exposed to scripts as the global "mob" table.
// Every function takes the acting mob's instance id first. A nil callback turns
// the corresponding Lua function into a no-op returning nil.
type MobAPI struct {
	SetProjectile  func(instance, name string)
	SetAttackRange func(instance string, r int)
	Talk           func(instance, text string)
	HitPointRatio  func(instance string) float64
	AttackerCount  func(instance string) int
	// Position returns the tile of instance; ok is false for unknown ids.
	Position func(instance string) (x, y int, ok bool)
	// Spawn spawns a minion owned by instance and returns its instance id.
	Spawn       func(instance, key string, x, y int) (string, error)
	MinionCount func(instance string) int
	RandomInt   func(min, max int) int
}

// RegisterModules registers the mob.* table into L.
//
// Postcondition: the mob global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	tbl := L.NewTable()
	L.SetFuncs(tbl, map[string]lua.LGFunction{
		"set_projectile": m.luaSetProjectile,
		"set_range":      m.luaSetRange,
		"talk":           m.luaTalk,
		"hp_ratio":       m.luaHitPointRatio,
		"attackers":      m.luaAttackerCount,
		"position":       m.luaPosition,
		"spawn":          m.luaSpawn,
		"minions":        m.luaMinionCount,
		"random_int":     m.luaRandomInt,
	})
	L.SetGlobal("mob", tbl)
}

func (m *Manager) luaSetProjectile(L *lua.LState) int {
	if api := m.api(); api.SetProjectile != nil {
		api.SetProjectile(L.CheckString(1), L.CheckString(2))
	}
	return 0
}

func (m *Manager) luaSetRange(L *lua.LState) int {
	if api := m.api(); api.SetAttackRange != nil {
		api.SetAttackRange(L.CheckString(1), L.CheckInt(2))
	}
	return 0
}

func (m *Manager) luaTalk(L *lua.LState) int {
	if api := m.api(); api.Talk != nil {
		api.Talk(L.CheckString(1), L.CheckString(2))
	}
	return 0
}

func (m *Manager) luaHitPointRatio(L *lua.LState) int {
	api := m.api()
	if api.HitPointRatio == nil {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(api.HitPointRatio(L.CheckString(1))))
	return 1
}

func (m *Manager) luaAttackerCount(L *lua.LState) int {
	api := m.api()
	if api.AttackerCount == nil {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(api.AttackerCount(L.CheckString(1))))
	return 1
}

func (m *Manager) luaPosition(L *lua.LState) int {
	api := m.api()
	if api.Position == nil {
		L.Push(lua.LNil)
		return 1
	}
	x, y, ok := api.Position(L.CheckString(1))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(x))
	L.Push(lua.LNumber(y))
	return 2
}

func (m *Manager) luaMinionCount(L *lua.LState) int {
	api := m.api()
	if api.MinionCount == nil {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(api.MinionCount(L.CheckString(1))))
	return 1
}

func (m *Manager) luaSpawn(L *lua.LState) int {
	api := m.api()
	if api.Spawn == nil {
		L.Push(lua.LNil)
		return 1
	}
	id, err := api.Spawn(L.CheckString(1), L.CheckString(2), L.CheckInt(3), L.CheckInt(4))
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LString(id))
	return 1
}

func (m *Manager) luaRandomInt(L *lua.LState) int {
	min, max := L.CheckInt(1), L.CheckInt(2)
	if max < min {
		L.ArgError(2, "max must be >= min")
		return 0
	}
	if api := m.api(); api.RandomInt != nil {
		L.Push(lua.LNumber(api.RandomInt(min, max)))
		return 1
	}
	L.Push(lua.LNumber(m.roller.Int("lua random_int", min, max)))
	return 1
}
