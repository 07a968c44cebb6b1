// Package signal is the websocket push channel: it relays coordinator events
// to every connected browser and accepts a small set of client commands.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/PlanningPoker/internal/app"
	"github.com/dkeye/PlanningPoker/internal/core"
	"github.com/dkeye/PlanningPoker/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrClosed       = errors.New("connection closed")
)

type Options struct {
	ReadLimit  int64
	PingPeriod time.Duration
	VoteLimit  int
	VoteWindow time.Duration
}

type SignalWSController struct {
	Coord   *app.Coordinator
	Hub     core.Hub
	Limiter *VoteRateLimiter
	opts    Options
}

func NewSignalWSController(coord *app.Coordinator, hub core.Hub, opts Options) *SignalWSController {
	if opts.PingPeriod <= 0 {
		opts.PingPeriod = 54 * time.Second
	}
	if opts.VoteLimit <= 0 {
		opts.VoteLimit = 5
	}
	if opts.VoteWindow <= 0 {
		opts.VoteWindow = 10 * time.Second
	}
	return &SignalWSController{
		Coord:   coord,
		Hub:     hub,
		Limiter: NewVoteRateLimiter(opts.VoteLimit, opts.VoteWindow),
		opts:    opts,
	}
}

type WsSignalConn struct {
	id    core.ConnID
	token domain.Token
	conn  *websocket.Conn
	send  chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	token := domain.Token(c.GetString("client_token"))
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	if ctl.opts.ReadLimit > 0 {
		ws.SetReadLimit(ctl.opts.ReadLimit)
	}

	conn := &WsSignalConn{
		id:    core.ConnID(uuid.NewString()),
		token: token,
		conn:  ws,
		send:  make(chan core.Frame, 32),
	}
	log.Info().Str("module", "signal").Str("token", string(token)).Str("conn", string(conn.id)).Msg("new WS connection")
	ctl.Hub.Attach(conn.id, token, conn)

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, conn)

	ctl.handleState(conn)
}
