package signal

func (ctl *SignalWSController) handlePing(conn *WsSignalConn) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: "pong",
	}
	ctl.sendJSON(conn, resp)
}

func (ctl *SignalWSController) handleState(conn *WsSignalConn) {
	ctl.sendJSON(conn, map[string]any{
		"type": "state",
		"data": ctl.Coord.State(),
	})
}
