package signal

import (
	"context"

	"github.com/dkeye/PlanningPoker/internal/domain"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleWhoAmI(conn *WsSignalConn) {
	id, err := ctl.Coord.WhoAmI(conn.token)
	if err != nil {
		ctl.sendError(conn, err)
		return
	}
	ctl.sendJSON(conn, map[string]any{
		"type": "whoami",
		"data": id,
	})
}

func (ctl *SignalWSController) handleIdentity(ctx context.Context, conn *WsSignalConn, data []byte) {
	var p struct {
		Pseudonym string `json:"pseudonym"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad identity payload")
		ctl.sendError(conn, domain.InvalidInput("bad_payload"))
		return
	}
	if _, err := ctl.Coord.SetActiveIdentity(ctx, conn.token, p.Pseudonym); err != nil {
		ctl.sendError(conn, err)
		return
	}
	ctl.handleWhoAmI(conn)
}
