package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/kaetram/mobengine/internal/game/mob"
	"github.com/kaetram/mobengine/internal/game/rng"
)

const simTemplates = `
- key: ogrelord
  name: Ogre Lord
  level: 40
  hit_points: 1000
  attack_range: 1
  plugin: ogrelord
  boss: true
- key: ogre
  name: Ogre
  level: 20
  hit_points: 100
  attack_range: 1
- key: ogrewarrior
  name: Ogre Warrior
  level: 25
  hit_points: 150
  attack_range: 1
`

// syncBuffer lets the packet printer and the kill ledger share one buffer.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestSim(t *testing.T, out *syncBuffer) *sim {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ogres.yaml"), []byte(simTemplates), 0o644))

	s, err := newSim(simConfig{
		ContentDir: dir,
		Source:     rng.NewSeededSource(7),
		Logger:     zaptest.NewLogger(t),
		Out:        out,
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestFight_PartyKillsOgreLord(t *testing.T) {
	out := &syncBuffer{}
	s := newTestSim(t, out)

	res, err := s.Fight(context.Background(), fight{
		Boss:      "ogrelord",
		At:        mob.Position{X: 140, Y: 48},
		Attackers: 6,
		Level:     40,
		Rounds:    200,
		Step:      600 * time.Millisecond,
	})
	require.NoError(t, err)
	s.Close()

	assert.True(t, res.BossDead)
	assert.Zero(t, res.BossHP)
	assert.Zero(t, res.MinionsAlive, "minions are recalled with the boss")
	assert.GreaterOrEqual(t, res.DamageDealt, int64(1000))

	log := out.String()
	assert.Contains(t, log, "kill #1: ogrelord")
	assert.Contains(t, log, "despawn")
	assert.NotContains(t, log, "] combat", "combat packets are only printed in verbose mode")
}

func TestFight_RoundLimit(t *testing.T) {
	s := newTestSim(t, &syncBuffer{})

	res, err := s.Fight(context.Background(), fight{
		Boss:      "ogrelord",
		At:        mob.Position{X: 140, Y: 48},
		Attackers: 1,
		Level:     1,
		Rounds:    3,
		Step:      time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Rounds)
	assert.Equal(t, 3*time.Second, res.Elapsed)
	assert.False(t, res.BossDead)
}

func TestFight_UnknownBoss(t *testing.T) {
	s := newTestSim(t, &syncBuffer{})

	_, err := s.Fight(context.Background(), fight{Boss: "dragon", Attackers: 1, Rounds: 1, Step: time.Second})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "spawning boss"))
}
