package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/kaetram/mobengine/internal/game/behavior"
	"github.com/kaetram/mobengine/internal/game/mob"
	"github.com/kaetram/mobengine/internal/game/region"
	"github.com/kaetram/mobengine/internal/game/rng"
	"github.com/kaetram/mobengine/internal/game/timer"
	"github.com/kaetram/mobengine/internal/scripting"
)

const (
	contentDir = "../../../content/mobs"
	scriptDir  = "../../../content/scripts"
)

func TestContent_EveryPluginResolves(t *testing.T) {
	templates, err := mob.LoadTemplates(contentDir)
	require.NoError(t, err)

	logger := zaptest.NewLogger(t)
	scripts := scripting.NewManager(rng.NewRoller(rng.NewCryptoSource(), logger), 0, logger)
	t.Cleanup(scripts.Close)
	_, err = scripts.LoadDir(scriptDir)
	require.NoError(t, err)

	registry := behavior.DefaultRegistry()
	for _, key := range registry.Keys() {
		_, ok := templates[key]
		assert.True(t, ok, "built-in plugin %q has no template", key)
	}
	for key, tmpl := range templates {
		if tmpl.Plugin == "" {
			continue
		}
		assert.True(t, registry.Has(tmpl.Plugin) || scripts.Has(tmpl.Plugin),
			"template %q names plugin %q with no behavior", key, tmpl.Plugin)
	}
}

func TestContent_YetiScriptSummonsWolvesNearby(t *testing.T) {
	templates, err := mob.LoadTemplates(contentDir)
	require.NoError(t, err)

	logger := zaptest.NewLogger(t)
	roller := rng.NewRoller(rng.NewCryptoSource(), logger)
	scripts := scripting.NewManager(roller, 0, logger)
	t.Cleanup(scripts.Close)
	_, err = scripts.LoadDir(scriptDir)
	require.NoError(t, err)

	w := New(mob.NewManager(templates), Config{
		Hub:       region.NewHub(256, logger),
		Roller:    roller,
		Scheduler: timer.NewManual(),
		Logger:    logger,
		Scripts:   scripts,
	})
	scripts.SetAPI(w.ScriptAPI())

	yeti, err := w.SpawnMob("yeti", mob.Position{X: 300, Y: 120}, true)
	require.NoError(t, err)
	a := &attacker{id: "p1", pos: mob.Position{X: 301, Y: 120}}

	w.Damage(yeti, yeti.HitPoints.Max()/2+1, a)
	w.Damage(yeti, 1, a)
	w.Damage(yeti, 1, a)

	h, ok := w.Handler(yeti.Instance())
	require.True(t, ok)
	assert.Equal(t, 2, h.Default().Minions.Len())
	for _, m := range w.Mobs().All() {
		if m.Key() != "snowwolf" {
			continue
		}
		assert.LessOrEqual(t, m.Position().Distance(yeti.Position()), 1)
	}
}
