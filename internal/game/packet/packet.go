// Package packet defines the payloads mob behaviors broadcast to region
// observers and their protobuf wire encoding.
package packet

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Opcode identifies a packet type on the wire.
type Opcode int

const (
	OpSpawn Opcode = iota + 1
	OpDespawn
	OpTeleport
	OpChat
	OpHeal
	OpCombat
)

// String returns the opcode label used in logs.
func (o Opcode) String() string {
	switch o {
	case OpSpawn:
		return "spawn"
	case OpDespawn:
		return "despawn"
	case OpTeleport:
		return "teleport"
	case OpChat:
		return "chat"
	case OpHeal:
		return "heal"
	case OpCombat:
		return "combat"
	default:
		return "unknown"
	}
}

// Packet is a broadcastable payload.
type Packet interface {
	Opcode() Opcode
	// Fields returns the payload as a flat field map.
	Fields() map[string]any
}

// Spawn announces a new entity; for projectiles Target and Damage are set.
type Spawn struct {
	Instance string
	Key      string
	X, Y     int
	Source   string
	Target   string
	Damage   int
	HitType  string
	AoE      int
}

func (Spawn) Opcode() Opcode { return OpSpawn }

func (p Spawn) Fields() map[string]any {
	return map[string]any{
		"instance": p.Instance,
		"key":      p.Key,
		"x":        p.X,
		"y":        p.Y,
		"source":   p.Source,
		"target":   p.Target,
		"damage":   p.Damage,
		"hitType":  p.HitType,
		"aoe":      p.AoE,
	}
}

// Despawn removes an entity from observers.
type Despawn struct {
	Instance string
}

func (Despawn) Opcode() Opcode { return OpDespawn }

func (p Despawn) Fields() map[string]any {
	return map[string]any{"instance": p.Instance}
}

// Teleport moves an entity, optionally with the teleport animation.
type Teleport struct {
	Instance      string
	X, Y          int
	WithAnimation bool
}

func (Teleport) Opcode() Opcode { return OpTeleport }

func (p Teleport) Fields() map[string]any {
	return map[string]any{
		"instance":      p.Instance,
		"x":             p.X,
		"y":             p.Y,
		"withAnimation": p.WithAnimation,
	}
}

// Chat is a line of mob dialogue shown above the speaker.
type Chat struct {
	Instance string
	Text     string
}

func (Chat) Opcode() Opcode { return OpChat }

func (p Chat) Fields() map[string]any {
	return map[string]any{"instance": p.Instance, "text": p.Text}
}

// Heal reports a heal applied to an entity.
type Heal struct {
	Instance string
	Amount   int
	Resource string
}

func (Heal) Opcode() Opcode { return OpHeal }

func (p Heal) Fields() map[string]any {
	return map[string]any{"instance": p.Instance, "amount": p.Amount, "type": p.Resource}
}

// Combat reports that Attacker has started attacking Target.
type Combat struct {
	Attacker string
	Target   string
}

func (Combat) Opcode() Opcode { return OpCombat }

func (p Combat) Fields() map[string]any {
	return map[string]any{"attacker": p.Attacker, "target": p.Target}
}

// Encode converts p to a protobuf Struct of the form
// {"opcode": <n>, "data": {...}}.
func Encode(p Packet) (*structpb.Struct, error) {
	data, err := structpb.NewStruct(normalize(p.Fields()))
	if err != nil {
		return nil, fmt.Errorf("encoding %s packet: %w", p.Opcode(), err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"opcode": structpb.NewNumberValue(float64(p.Opcode())),
		"data":   structpb.NewStructValue(data),
	}}, nil
}

// Marshal encodes p to protobuf wire bytes.
func Marshal(p Packet) ([]byte, error) {
	s, err := Encode(p)
	if err != nil {
		return nil, err
	}
	b, err := proto.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshalling %s packet: %w", p.Opcode(), err)
	}
	return b, nil
}

// Unmarshal decodes wire bytes produced by Marshal into the opcode and field map.
func Unmarshal(b []byte) (Opcode, map[string]any, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(b, &s); err != nil {
		return 0, nil, fmt.Errorf("unmarshalling packet: %w", err)
	}
	op := Opcode(s.GetFields()["opcode"].GetNumberValue())
	data := s.GetFields()["data"].GetStructValue().AsMap()
	return op, data, nil
}

// normalize widens int fields to float64, the only numeric type structpb accepts
// through NewValue without loss of intent.
func normalize(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		if i, ok := v.(int); ok {
			out[k] = float64(i)
			continue
		}
		out[k] = v
	}
	return out
}
