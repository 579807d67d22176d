package broadcast

import "context"

// Local is the single-node Fabric: publishing simply invokes the local
// handler directly, in the same order Publish was called.
type Local struct {
	handler Handler
}

func NewLocal() *Local {
	return &Local{}
}

func (l *Local) Publish(_ context.Context, roomID string, payload []byte) error {
	if l.handler != nil {
		l.handler(roomID, payload)
	}
	return nil
}

func (l *Local) OnMessage(h Handler) { l.handler = h }

func (l *Local) Close() error { return nil }
