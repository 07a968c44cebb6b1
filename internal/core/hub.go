package core

import (
	"sync"

	"github.com/dkeye/PlanningPoker/internal/domain"
	"github.com/rs/zerolog/log"
)

type hubEntry struct {
	token domain.Token
	conn  SignalConnection
}

// hubImpl is a threadsafe connection set.
// It only closes connections when asked to via CloseToken, CloseAll or Kick.
type hubImpl struct {
	mu    sync.RWMutex
	conns map[ConnID]hubEntry
}

func NewHub() Hub {
	return &hubImpl{conns: make(map[ConnID]hubEntry)}
}

func (h *hubImpl) Attach(id ConnID, token domain.Token, conn SignalConnection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[id] = hubEntry{token: token, conn: conn}
	log.Info().Str("module", "core.hub").Str("conn", string(id)).Str("token", string(token)).Msg("connection attached")
}

func (h *hubImpl) Detach(id ConnID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[id]; !ok {
		return
	}
	delete(h.conns, id)
	log.Info().Str("module", "core.hub").Str("conn", string(id)).Msg("connection detached")
}

func (h *hubImpl) Broadcast(data Frame) PublishResult {
	return h.publish(data, func(hubEntry) bool { return true })
}

func (h *hubImpl) SendTo(token domain.Token, data Frame) PublishResult {
	return h.publish(data, func(e hubEntry) bool { return e.token == token })
}

func (h *hubImpl) publish(data Frame, match func(hubEntry) bool) PublishResult {
	h.mu.RLock()
	defer h.mu.RUnlock()
	res := PublishResult{}
	for id, e := range h.conns {
		if !match(e) {
			continue
		}
		if err := e.conn.TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, id)
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "core.hub").Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("publish result")
	return res
}

// CloseToken closes every connection held by token and returns how many.
func (h *hubImpl) CloseToken(token domain.Token) int {
	h.mu.Lock()
	var closing []SignalConnection
	for id, e := range h.conns {
		if e.token == token {
			closing = append(closing, e.conn)
			delete(h.conns, id)
		}
	}
	h.mu.Unlock()
	for _, c := range closing {
		c.Close()
	}
	return len(closing)
}

// CloseAll closes and forgets every connection and returns how many.
func (h *hubImpl) CloseAll() int {
	h.mu.Lock()
	closing := make([]SignalConnection, 0, len(h.conns))
	for _, e := range h.conns {
		closing = append(closing, e.conn)
	}
	h.conns = make(map[ConnID]hubEntry)
	h.mu.Unlock()
	for _, c := range closing {
		c.Close()
	}
	log.Info().Str("module", "core.hub").Int("closed", len(closing)).Msg("all connections closed")
	return len(closing)
}

// Kick closes and forgets a single connection.
func (h *hubImpl) Kick(id ConnID) {
	h.mu.Lock()
	e, ok := h.conns[id]
	delete(h.conns, id)
	h.mu.Unlock()
	if ok {
		e.conn.Close()
		log.Warn().Str("module", "core.hub").Str("conn", string(id)).Msg("connection kicked")
	}
}

func (h *hubImpl) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}
