package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dkeye/PlanningPoker/internal/adapters/signal"
	"github.com/dkeye/PlanningPoker/internal/app"
	"github.com/dkeye/PlanningPoker/internal/backlog"
	"github.com/dkeye/PlanningPoker/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type handlers struct {
	coord *app.Coordinator
	sig   *signal.SignalWSController
}

func tokenOf(c *gin.Context) domain.Token {
	return domain.Token(c.GetString(ctxToken))
}

type pseudonymRequest struct {
	Pseudonym string `json:"pseudonym" form:"pseudonym"`
}

type featureRequest struct {
	Name                 *string          `json:"name"`
	Description          *string          `json:"description"`
	Priority             *backlog.FlexInt `json:"priority"`
	Difficulty           *backlog.FlexInt `json:"difficulty"`
	Status               *string          `json:"status"`
	VotingMode           *string          `json:"voting_mode"`
	ExpectedParticipants *[]string        `json:"expected_participants"`
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (r featureRequest) patch() domain.FeaturePatch {
	var p domain.FeaturePatch
	p.Name = r.Name
	p.Description = r.Description
	if r.Priority != nil {
		v := int(*r.Priority)
		p.Priority = &v
	}
	if r.Difficulty != nil {
		v := int(*r.Difficulty)
		p.Difficulty = &v
	}
	if r.Status != nil {
		s, err := domain.ParseStatus(*r.Status)
		if err != nil {
			s = domain.Status(normalize(*r.Status))
		}
		p.Status = &s
	}
	if r.VotingMode != nil {
		m := domain.VotingMode(normalize(*r.VotingMode))
		p.VotingMode = &m
	}
	if r.ExpectedParticipants != nil {
		names := make([]string, 0, len(*r.ExpectedParticipants))
		for _, n := range *r.ExpectedParticipants {
			names = append(names, strings.TrimSpace(n))
		}
		p.ExpectedParticipants = &names
	}
	return p
}

func (r featureRequest) feature() domain.Feature {
	var f domain.Feature
	r.patch().Apply(&f)
	return f
}

func (h *handlers) cards(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"cards": domain.Deck(), "numeric": domain.NumericCards()})
}

func (h *handlers) join(c *gin.Context) {
	var req pseudonymRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.coord.Join(c.Request.Context(), req.Pseudonym, tokenOf(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *handlers) leave(c *gin.Context) {
	token := tokenOf(c)
	h.coord.Leave(c.Request.Context(), token)
	if h.sig != nil {
		h.sig.Limiter.Forget(token)
		h.sig.Hub.CloseToken(token)
	}
	s := sessions.Default(c)
	s.Clear()
	if err := s.Save(); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("session clear")
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) setIdentity(c *gin.Context) {
	var req pseudonymRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.coord.SetActiveIdentity(c.Request.Context(), tokenOf(c), req.Pseudonym)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *handlers) whoAmI(c *gin.Context) {
	id, err := h.coord.WhoAmI(tokenOf(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, id)
}

func (h *handlers) participants(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"participants": h.coord.Participants()})
}

func (h *handlers) state(c *gin.Context) {
	c.JSON(http.StatusOK, h.coord.State())
}

func (h *handlers) disconnectAll(c *gin.Context) {
	n, err := h.coord.DisconnectAll(c.Request.Context(), tokenOf(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if h.sig != nil {
		h.sig.Limiter.Reset()
		closed := h.sig.Hub.CloseAll()
		log.Info().Str("module", "adapters.http").Int("removed", n).Int("closed", closed).Msg("session cleared")
	}
	c.JSON(http.StatusOK, gin.H{"removed": n})
}

func (h *handlers) listBacklog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"features": h.coord.Backlog()})
}

func (h *handlers) currentFeature(c *gin.Context) {
	f, ok := h.coord.CurrentFeature()
	if !ok {
		respondError(c, domain.NotFound("no unfinished feature in the backlog"))
		return
	}
	c.JSON(http.StatusOK, f)
}

func (h *handlers) addFeature(c *gin.Context) {
	var req featureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	f, err := h.coord.AddFeature(c.Request.Context(), tokenOf(c), req.feature())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, f)
}

func featureID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		respondError(c, domain.InvalidInput("feature id must be a positive integer"))
		return 0, false
	}
	return id, true
}

func (h *handlers) editFeature(c *gin.Context) {
	id, ok := featureID(c)
	if !ok {
		return
	}
	var req featureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	f, err := h.coord.EditFeature(c.Request.Context(), tokenOf(c), id, req.patch())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (h *handlers) deleteFeature(c *gin.Context) {
	id, ok := featureID(c)
	if !ok {
		return
	}
	if err := h.coord.DeleteFeature(c.Request.Context(), tokenOf(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) advance(c *gin.Context) {
	f, err := h.coord.Advance(c.Request.Context(), tokenOf(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (h *handlers) initiateVote(c *gin.Context) {
	var req struct {
		FeatureID int `json:"feature_id"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	if req.FeatureID == 0 {
		f, ok := h.coord.CurrentFeature()
		if !ok {
			respondError(c, domain.NotFound("no current feature to vote on"))
			return
		}
		req.FeatureID = f.ID
	}
	state, err := h.coord.InitiateVote(c.Request.Context(), tokenOf(c), req.FeatureID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *handlers) castVote(c *gin.Context) {
	var req struct {
		Card string `json:"card" form:"card" binding:"required"`
	}
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}
	state, err := h.coord.CastVoteAs(c.Request.Context(), tokenOf(c), req.Card)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *handlers) revealVotes(c *gin.Context) {
	votes, err := h.coord.RevealVotes(c.Request.Context(), tokenOf(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"votes": votes})
}

func (h *handlers) facilitateDiscussion(c *gin.Context) {
	state, err := h.coord.FacilitateDiscussion(c.Request.Context(), tokenOf(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *handlers) validateVote(c *gin.Context) {
	res, err := h.coord.ValidateVote(c.Request.Context(), tokenOf(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handlers) resetRound(c *gin.Context) {
	state, err := h.coord.ResetRound(c.Request.Context(), tokenOf(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *handlers) resumeFromBreak(c *gin.Context) {
	features, err := h.coord.ResumeFromBreak(c.Request.Context(), tokenOf(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"features": features})
}

func (h *handlers) panel(c *gin.Context) {
	p, err := h.coord.Panel(tokenOf(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
