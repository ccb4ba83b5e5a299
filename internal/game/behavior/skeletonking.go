package behavior

import "github.com/kaetram/mobengine/internal/game/mob"

var (
	skeletonKingFirstWave = Wave{
		Key:       "skeleton",
		Threshold: 0.5,
		Positions: []mob.Position{{X: 151, Y: 164}, {X: 157, Y: 164}},
	}
	skeletonKingSecondWave = Wave{
		Key:       "skeletonarcher",
		Threshold: 0.25,
		Positions: []mob.Position{{X: 151, Y: 160}, {X: 157, Y: 160}, {X: 154, Y: 158}},
	}
)

// NewSkeletonKing builds the Skeleton King: skeleton guards at half health,
// archers at a quarter.
func NewSkeletonKing(d *Default) Behavior {
	return NewWaveBoss(d, skeletonKingFirstWave, skeletonKingSecondWave)
}
