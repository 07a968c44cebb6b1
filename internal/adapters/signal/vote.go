package signal

import (
	"context"

	"github.com/dkeye/PlanningPoker/internal/domain"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleVote(ctx context.Context, conn *WsSignalConn, data []byte) {
	var p struct {
		Card string `json:"card"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad vote payload")
		ctl.sendError(conn, domain.InvalidInput("bad_payload"))
		return
	}
	if !ctl.Limiter.Allow(conn.token) {
		log.Warn().Str("module", "signal").Str("token", string(conn.token)).Msg("vote rate limited")
		ctl.sendJSON(conn, map[string]any{
			"type":  "error",
			"error": "rate_limited",
		})
		return
	}
	state, err := ctl.Coord.CastVoteAs(ctx, conn.token, p.Card)
	if err != nil {
		ctl.sendError(conn, err)
		return
	}
	ctl.sendJSON(conn, map[string]any{
		"type": "vote_accepted",
		"data": state,
	})
}
