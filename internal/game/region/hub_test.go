package region_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/kaetram/mobengine/internal/game/mob"
	"github.com/kaetram/mobengine/internal/game/packet"
	"github.com/kaetram/mobengine/internal/game/region"
)

func TestHub_DeliversToNeighbouringObservers(t *testing.T) {
	h := region.NewHub(4, zaptest.NewLogger(t))
	near := h.Subscribe(mob.RegionID{X: 1, Y: 1})
	far := h.Subscribe(mob.RegionID{X: 5, Y: 5})
	all := h.Subscribe()

	n := h.Broadcast(mob.RegionID{X: 0, Y: 0}, packet.Chat{Instance: "ogre", Text: "Hmph"})
	assert.Equal(t, 2, n)

	d := <-near.C()
	assert.Equal(t, packet.OpChat, d.Packet.Opcode())
	assert.Len(t, all.C(), 1)
	assert.Len(t, far.C(), 0)
}

func TestHub_FullBufferDropsWithoutBlocking(t *testing.T) {
	h := region.NewHub(1, zaptest.NewLogger(t))
	s := h.Subscribe()
	assert.Equal(t, 1, h.Broadcast(mob.RegionID{}, packet.Despawn{Instance: "a"}))
	assert.Equal(t, 0, h.Broadcast(mob.RegionID{}, packet.Despawn{Instance: "b"}))
	d := <-s.C()
	assert.Equal(t, packet.Despawn{Instance: "a"}, d.Packet)
}

func TestHub_UnsubscribeClosesOnce(t *testing.T) {
	h := region.NewHub(1, zaptest.NewLogger(t))
	s := h.Subscribe()
	h.Unsubscribe(s)
	h.Unsubscribe(s)
	_, open := <-s.C()
	require.False(t, open)
	assert.Equal(t, 0, h.Broadcast(mob.RegionID{}, packet.Despawn{Instance: "a"}))
}
