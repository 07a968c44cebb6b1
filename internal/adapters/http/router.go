package http

import (
	"context"

	"github.com/dkeye/PlanningPoker/internal/adapters/signal"
	"github.com/dkeye/PlanningPoker/internal/app"
	"github.com/dkeye/PlanningPoker/internal/config"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	sessionName = "PokerSession"
	tokenKey    = "token"
	ctxToken    = "client_token"
)

func genClientToken() string {
	return uuid.NewString()
}

// ClientTokenMiddleware keeps an opaque token in the signed session cookie
// and exposes it to handlers as "client_token".
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := sessions.Default(c)
		token, _ := s.Get(tokenKey).(string)
		if token == "" {
			token = genClientToken()
			s.Set(tokenKey, token)
			if err := s.Save(); err != nil {
				log.Error().Err(err).Str("module", "adapters.http").Msg("session save")
			}
		}
		c.Set(ctxToken, token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, coord *app.Coordinator, sig *signal.SignalWSController) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24 * 7, HttpOnly: true})
	r.Use(sessions.Sessions(sessionName, store))
	r.Use(ClientTokenMiddleware())

	if cfg.StaticPath != "" {
		r.Static("/static", cfg.StaticPath)
		r.GET("/", func(c *gin.Context) {
			c.File(cfg.StaticPath + "/index.html")
		})
	}

	h := &handlers{coord: coord, sig: sig}
	api := r.Group("/api")

	api.GET("/cards", h.cards)
	api.POST("/join", h.join)
	api.POST("/leave", h.leave)
	api.POST("/identity", h.setIdentity)
	api.GET("/me", h.whoAmI)
	api.GET("/participants", h.participants)
	api.GET("/state", h.state)
	api.POST("/disconnect-all", h.disconnectAll)

	bl := api.Group("/backlog")
	bl.GET("", h.listBacklog)
	bl.GET("/current", h.currentFeature)
	bl.POST("", h.addFeature)
	bl.PATCH("/:id", h.editFeature)
	bl.DELETE("/:id", h.deleteFeature)
	bl.POST("/advance", h.advance)

	round := api.Group("/round")
	round.POST("/initiate", h.initiateVote)
	round.POST("/vote", h.castVote)
	round.POST("/reveal", h.revealVotes)
	round.POST("/discuss", h.facilitateDiscussion)
	round.POST("/validate", h.validateVote)
	round.POST("/reset", h.resetRound)
	round.POST("/resume", h.resumeFromBreak)
	round.GET("/panel", h.panel)

	if sig != nil {
		api.GET("/ws/signal", func(c *gin.Context) {
			log.Info().Str("module", "adapters.http").Str("token", c.GetString(ctxToken)).Msg("ws signal endpoint hit")
			sig.HandleSignal(ctx, c)
		})
	}

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")
	return r
}
