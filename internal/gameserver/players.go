package gameserver

import (
	"sync"

	"github.com/kaetram/mobengine/internal/game/mob"
)

type playerState struct {
	id     string
	name   string
	pos    mob.Position
	level  int
	ranged bool
	moving bool
}

// player is a character owned by the remote combat system. Mobs hold on to
// the same value across requests, so each request refreshes it in place.
type player struct {
	mu    sync.RWMutex
	state playerState
}

func (p *player) snapshot() playerState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

func (p *player) Instance() string       { return p.snapshot().id }
func (p *player) Name() string           { return p.snapshot().name }
func (p *player) Position() mob.Position { return p.snapshot().pos }
func (p *player) Level() int             { return p.snapshot().level }
func (p *player) IsMob() bool            { return false }
func (p *player) IsRanged() bool         { return p.snapshot().ranged }
func (p *player) IsMoving() bool         { return p.snapshot().moving }
func (p *player) Heal(int, mob.Resource) {}

// players interns remote characters by id.
type players struct {
	mu   sync.Mutex
	byID map[string]*player
}

func newPlayers() *players {
	return &players{byID: make(map[string]*player)}
}

func (ps *players) upsert(st playerState) *player {
	if st.name == "" {
		st.name = st.id
	}
	ps.mu.Lock()
	p, ok := ps.byID[st.id]
	if !ok {
		p = &player{}
		ps.byID[st.id] = p
	}
	ps.mu.Unlock()

	p.mu.Lock()
	p.state = st
	p.mu.Unlock()
	return p
}
