package broadcast

import (
	"context"

	"github.com/charmbracelet/log"
)

// NewFromEnv builds a Fabric from an optional broker URL. An empty URL
// always yields single-node Local mode. A non-empty URL that fails to
// connect degrades to Local and logs once, rather than failing startup.
func NewFromEnv(ctx context.Context, brokerURL string) Fabric {
	if brokerURL == "" {
		return NewLocal()
	}
	f, err := NewRedis(ctx, brokerURL)
	if err != nil {
		log.Warn("broadcast broker unreachable, falling back to single-node mode", "broker_url", brokerURL, "err", err)
		return NewLocal()
	}
	return f
}
