package gameserver

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/kaetram/mobengine/internal/game/mob"
	"github.com/kaetram/mobengine/internal/game/packet"
)

// Attacker describes the character credited with a hit or kill.
type Attacker struct {
	ID     string
	Name   string
	X, Y   int
	Level  int
	Ranged bool
	Moving bool
}

func (a *Attacker) value() *structpb.Value {
	return structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
		"id":     structpb.NewStringValue(a.ID),
		"name":   structpb.NewStringValue(a.Name),
		"x":      structpb.NewNumberValue(float64(a.X)),
		"y":      structpb.NewNumberValue(float64(a.Y)),
		"level":  structpb.NewNumberValue(float64(a.Level)),
		"ranged": structpb.NewBoolValue(a.Ranged),
		"moving": structpb.NewBoolValue(a.Moving),
	}})
}

// Event is one packet received from a Subscribe stream.
type Event struct {
	Opcode packet.Opcode
	Data   map[string]any
	Region mob.RegionID
}

// Client calls a MobService.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient returns a Client over cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, req *structpb.Struct) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Hit damages mobID on behalf of a, which may be nil. It returns the hit
// points removed and whether the hit killed the mob.
func (c *Client) Hit(ctx context.Context, mobID string, damage int, a *Attacker) (int, bool, error) {
	req := &structpb.Struct{Fields: map[string]*structpb.Value{
		"mob":    structpb.NewStringValue(mobID),
		"damage": structpb.NewNumberValue(float64(damage)),
	}}
	if a != nil {
		req.Fields["attacker"] = a.value()
	}
	out, err := c.invoke(ctx, "Hit", req)
	if err != nil {
		return 0, false, err
	}
	dealt, _ := intField(out, "dealt")
	return dealt, boolField(out, "dead"), nil
}

// Kill runs mobID's death path, crediting a when non-nil.
func (c *Client) Kill(ctx context.Context, mobID string, a *Attacker) error {
	req := &structpb.Struct{Fields: map[string]*structpb.Value{
		"mob": structpb.NewStringValue(mobID),
	}}
	if a != nil {
		req.Fields["attacker"] = a.value()
	}
	_, err := c.invoke(ctx, "Kill", req)
	return err
}

// Attack runs one attack turn of mobID and reports whether it had a target.
func (c *Client) Attack(ctx context.Context, mobID string) (bool, error) {
	out, err := c.invoke(ctx, "Attack", &structpb.Struct{Fields: map[string]*structpb.Value{
		"mob": structpb.NewStringValue(mobID),
	}})
	if err != nil {
		return false, err
	}
	return boolField(out, "attacked"), nil
}

// Impact resolves the projectile with the given instance id.
func (c *Client) Impact(ctx context.Context, projectile string) error {
	_, err := c.invoke(ctx, "Impact", &structpb.Struct{Fields: map[string]*structpb.Value{
		"projectile": structpb.NewStringValue(projectile),
	}})
	return err
}

// Subscription is an open Subscribe stream.
type Subscription struct {
	stream grpc.ClientStream
}

// Subscribe opens a packet stream for regions, or for every region when none
// are given. It returns once the server has registered the subscription.
func (c *Client) Subscribe(ctx context.Context, regions ...mob.RegionID) (*Subscription, error) {
	list := make([]*structpb.Value, 0, len(regions))
	for _, r := range regions {
		list = append(list, structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"x": structpb.NewNumberValue(float64(r.X)),
			"y": structpb.NewNumberValue(float64(r.Y)),
		}}))
	}
	req := &structpb.Struct{Fields: map[string]*structpb.Value{
		"regions": structpb.NewListValue(&structpb.ListValue{Values: list}),
	}}

	stream, err := c.cc.NewStream(ctx, &serviceDesc.Streams[0], "/"+ServiceName+"/Subscribe")
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(req); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	if _, err := stream.Header(); err != nil {
		return nil, fmt.Errorf("waiting for subscription: %w", err)
	}
	return &Subscription{stream: stream}, nil
}

// Recv blocks for the next event. It returns io.EOF when the server closes
// the stream.
func (s *Subscription) Recv() (Event, error) {
	msg := new(structpb.Struct)
	if err := s.stream.RecvMsg(msg); err != nil {
		return Event{}, err
	}
	r := msg.GetFields()["region"].GetStructValue()
	x, _ := intField(r, "x")
	y, _ := intField(r, "y")
	return Event{
		Opcode: packet.Opcode(msg.GetFields()["opcode"].GetNumberValue()),
		Data:   msg.GetFields()["data"].GetStructValue().AsMap(),
		Region: mob.RegionID{X: x, Y: y},
	}, nil
}
