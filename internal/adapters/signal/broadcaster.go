package signal

import (
	"github.com/dkeye/PlanningPoker/internal/app"
	"github.com/dkeye/PlanningPoker/internal/core"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// Broadcaster is the app.EventSink that pushes every event to all connections.
type Broadcaster struct {
	hub    core.Hub
	policy app.Policy
}

func NewBroadcaster(hub core.Hub, policy app.Policy) *Broadcaster {
	if policy == nil {
		policy = app.SimplePolicy{}
	}
	return &Broadcaster{hub: hub, policy: policy}
}

func (b *Broadcaster) Publish(e app.Event) {
	frame, err := json.Marshal(e)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("event", string(e.Type)).Msg("event marshal")
		return
	}
	res := b.hub.Broadcast(frame)
	for _, slow := range res.Dropped {
		switch b.policy.OnBackPressure(slow) {
		case app.KickConnection:
			b.hub.Kick(slow)
		case app.DropFrame, app.NoAction:
		}
	}
}
