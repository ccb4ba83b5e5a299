// Package gameserver exposes the mob world to an external combat system over
// gRPC: hits, kills, attack turns and projectile impacts flow in, and region
// packets stream out.
package gameserver

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/kaetram/mobengine/internal/game/mob"
	"github.com/kaetram/mobengine/internal/game/packet"
	"github.com/kaetram/mobengine/internal/game/region"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "mobengine.v1.MobService"

// World is the part of the mob world the service drives.
type World interface {
	Mobs() *mob.Manager
	Hub() *region.Hub
	Damage(m *mob.Mob, amount int, attacker mob.Character) int
	Kill(m *mob.Mob, attacker mob.Character)
	Attack(m *mob.Mob) bool
	Impact(id string) error
}

// MobService is the gRPC front of a World. Requests and responses are
// protobuf Structs:
//
//	Hit       {mob, damage, attacker}  -> {dealt, dead}
//	Kill      {mob, attacker}          -> {}
//	Attack    {mob}                    -> {attacked}
//	Impact    {projectile}             -> {}
//	Subscribe {regions: [{x, y}]}      -> stream {opcode, data, region}
//
// An attacker is {id, name, x, y, level, ranged, moving}. An id naming a live
// mob resolves to that mob; any other id is a player known to the caller.
type MobService struct {
	world   World
	players *players
	logger  *zap.Logger

	closeOnce sync.Once
	done      chan struct{}
}

// NewMobService builds the service over w.
//
// Precondition: w and logger must be non-nil.
func NewMobService(w World, logger *zap.Logger) *MobService {
	if w == nil {
		panic("gameserver.NewMobService: world must not be nil")
	}
	if logger == nil {
		panic("gameserver.NewMobService: logger must not be nil")
	}
	return &MobService{
		world:   w,
		players: newPlayers(),
		logger:  logger,
		done:    make(chan struct{}),
	}
}

// Register installs the service on srv.
func (s *MobService) Register(srv grpc.ServiceRegistrar) {
	srv.RegisterService(&serviceDesc, s)
}

// Close ends every open Subscribe stream. Call it before GracefulStop, which
// otherwise waits for subscribers to hang up.
func (s *MobService) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// Hit applies damage to a live mob on behalf of the attacker.
func (s *MobService) Hit(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	m, err := s.liveMob(req)
	if err != nil {
		return nil, err
	}
	damage, ok := intField(req, "damage")
	if !ok || damage < 0 {
		return nil, status.Error(codes.InvalidArgument, "damage must be a non-negative number")
	}
	attacker, err := s.attacker(req)
	if err != nil {
		return nil, err
	}

	dealt := s.world.Damage(m, damage, attacker)
	return newStruct(map[string]any{"dealt": float64(dealt), "dead": m.Dead()})
}

// Kill runs a live mob's death path, crediting the attacker.
func (s *MobService) Kill(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	m, err := s.liveMob(req)
	if err != nil {
		return nil, err
	}
	attacker, err := s.attacker(req)
	if err != nil {
		return nil, err
	}
	s.world.Kill(m, attacker)
	s.logger.Debug("mob killed remotely", zap.String("mob", m.Instance()))
	return &structpb.Struct{}, nil
}

// Attack runs one attack turn of a live mob against its current target.
func (s *MobService) Attack(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	m, err := s.liveMob(req)
	if err != nil {
		return nil, err
	}
	return newStruct(map[string]any{"attacked": s.world.Attack(m)})
}

// Impact resolves a projectile that reached its target.
func (s *MobService) Impact(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := stringField(req, "projectile")
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "projectile is required")
	}
	if err := s.world.Impact(id); err != nil {
		if errors.Is(err, mob.ErrNotFound) {
			return nil, status.Error(codes.NotFound, err.Error())
		}
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &structpb.Struct{}, nil
}

// Subscribe streams every packet broadcast from the requested regions, or from
// all regions when none are given, until the caller hangs up or the service
// closes. Packets the subscriber is too slow to take are dropped. Response
// headers are sent once the subscription is live.
func (s *MobService) Subscribe(req *structpb.Struct, stream grpc.ServerStream) error {
	regions, err := regionsField(req)
	if err != nil {
		return err
	}
	hub := s.world.Hub()
	sub := hub.Subscribe(regions...)
	defer hub.Unsubscribe(sub)

	if err := stream.SendHeader(metadata.Pairs("regions", fmt.Sprint(len(regions)))); err != nil {
		return err
	}
	s.logger.Debug("subscriber attached", zap.Int("regions", len(regions)))

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.done:
			return nil
		case d, ok := <-sub.C():
			if !ok {
				return nil
			}
			msg, err := encodeDelivery(d)
			if err != nil {
				s.logger.Warn("encoding delivery", zap.Error(err))
				continue
			}
			if err := stream.SendMsg(msg); err != nil {
				return err
			}
		}
	}
}

func (s *MobService) liveMob(req *structpb.Struct) (*mob.Mob, error) {
	id := stringField(req, "mob")
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "mob is required")
	}
	m, ok := s.world.Mobs().Get(id)
	if !ok || m.Dead() {
		return nil, status.Errorf(codes.NotFound, "mob %q is not alive", id)
	}
	return m, nil
}

// attacker resolves the optional attacker field. A missing field yields a nil
// attacker.
func (s *MobService) attacker(req *structpb.Struct) (mob.Character, error) {
	v, ok := req.GetFields()["attacker"]
	if !ok {
		return nil, nil
	}
	a := v.GetStructValue()
	id := stringField(a, "id")
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "attacker.id is required")
	}
	if m, ok := s.world.Mobs().Get(id); ok {
		return m, nil
	}
	x, _ := intField(a, "x")
	y, _ := intField(a, "y")
	level, _ := intField(a, "level")
	return s.players.upsert(playerState{
		id:     id,
		name:   stringField(a, "name"),
		pos:    mob.Position{X: x, Y: y},
		level:  level,
		ranged: boolField(a, "ranged"),
		moving: boolField(a, "moving"),
	}), nil
}

func encodeDelivery(d region.Delivery) (*structpb.Struct, error) {
	msg, err := packet.Encode(d.Packet)
	if err != nil {
		return nil, err
	}
	r, err := structpb.NewStruct(map[string]any{"x": float64(d.Region.X), "y": float64(d.Region.Y)})
	if err != nil {
		return nil, err
	}
	msg.Fields["region"] = structpb.NewStructValue(r)
	return msg, nil
}

func regionsField(req *structpb.Struct) ([]mob.RegionID, error) {
	list := req.GetFields()["regions"].GetListValue()
	var out []mob.RegionID
	for _, v := range list.GetValues() {
		r := v.GetStructValue()
		if r == nil {
			return nil, status.Error(codes.InvalidArgument, "regions must be {x, y} objects")
		}
		x, xok := intField(r, "x")
		y, yok := intField(r, "y")
		if !xok || !yok {
			return nil, status.Error(codes.InvalidArgument, "region needs numeric x and y")
		}
		out = append(out, mob.RegionID{X: x, Y: y})
	}
	return out, nil
}

func newStruct(fields map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func stringField(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

func intField(s *structpb.Struct, key string) (int, bool) {
	v, ok := s.GetFields()[key]
	if !ok {
		return 0, false
	}
	if _, isNum := v.GetKind().(*structpb.Value_NumberValue); !isNum {
		return 0, false
	}
	return int(v.GetNumberValue()), true
}

func boolField(s *structpb.Struct, key string) bool {
	return s.GetFields()[key].GetBoolValue()
}
