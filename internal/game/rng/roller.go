package rng

import "go.uber.org/zap"

// Roller wraps a Source and logger so that every behavior roll is auditable.
// All rolls are logged at debug level with the reason, range and result.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewRoller creates a Roller that rolls with src and logs each roll to logger.
//
// Precondition: src and logger must be non-nil.
func NewRoller(src Source, logger *zap.Logger) *Roller {
	if src == nil {
		panic("rng.NewRoller: src must not be nil")
	}
	if logger == nil {
		panic("rng.NewRoller: logger must not be nil")
	}
	return &Roller{src: src, logger: logger}
}

// Intn satisfies Source so a Roller can be passed wherever a Source is expected.
func (r *Roller) Intn(n int) int {
	return r.src.Intn(n)
}

// Int rolls an inclusive integer in [min, max] and logs it under reason.
//
// Postcondition: min <= result <= max.
func (r *Roller) Int(reason string, min, max int) int {
	v := Int(r.src, min, max)
	r.logger.Debug("behavior roll",
		zap.String("reason", reason),
		zap.Int("min", min),
		zap.Int("max", max),
		zap.Int("result", v),
	)
	return v
}

// Chance reports whether an inclusive roll in [1, sides] lands on hit.
// Chance(reason, 6, 2) is the "one in six" gate used by minion spawners.
func (r *Roller) Chance(reason string, sides, hit int) bool {
	return r.Int(reason, 1, sides) == hit
}
