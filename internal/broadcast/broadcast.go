// Package broadcast implements the Broadcast Fabric: in single-node mode a
// room's subscriber set is just a local fan-out; in multi-node mode a
// pub/sub broker relays each room's broadcast record to every node, which
// then fans it out to its own local subscribers.
package broadcast

import "context"

// Handler is invoked once per received broadcast record, with the room it
// belongs to and its already-serialized (non-redacted) RoomSnapshot bytes.
// The caller is responsible for per-subscriber redaction on delivery.
type Handler func(roomID string, payload []byte)

// Fabric publishes a room's broadcast record and relays incoming ones to a
// locally registered Handler. Ordering: within one room, handlers observe
// records in publish order.
type Fabric interface {
	Publish(ctx context.Context, roomID string, payload []byte) error
	OnMessage(h Handler)
	Close() error
}
