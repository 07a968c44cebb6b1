package app

import (
	"context"
	"strconv"

	"github.com/dkeye/PlanningPoker/internal/domain"
	"github.com/rs/zerolog/log"
)

// CurrentFeature returns the feature under estimation, if any.
func (c *Coordinator) CurrentFeature() (domain.Feature, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentFeatureLocked()
}

func (c *Coordinator) Backlog() []domain.Feature {
	return c.store.List()
}

func (c *Coordinator) AddFeature(ctx context.Context, token domain.Token, f domain.Feature) (domain.Feature, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.actorLocked(token, domain.RoleProductOwner); err != nil {
		return domain.Feature{}, err
	}
	added, err := c.store.Add(ctx, f)
	if err != nil {
		return domain.Feature{}, err
	}
	c.emit(EventBacklogChanged, c.store.List())
	return added, nil
}

func (c *Coordinator) EditFeature(ctx context.Context, token domain.Token, id int, patch domain.FeaturePatch) (domain.Feature, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.actorLocked(token, domain.RoleProductOwner); err != nil {
		return domain.Feature{}, err
	}
	updated, err := c.store.Update(ctx, id, patch)
	if err != nil {
		return domain.Feature{}, err
	}
	c.emit(EventBacklogChanged, c.store.List())
	return updated, nil
}

// DeleteFeature removes feature id. Deleting the feature under vote resets the round.
func (c *Coordinator) DeleteFeature(ctx context.Context, token domain.Token, id int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.actorLocked(token, domain.RoleProductOwner); err != nil {
		return err
	}
	if !c.store.Delete(ctx, id) {
		return domain.NotFound("feature " + strconv.Itoa(id) + " not found")
	}
	if c.ind.CurrentFeatureID == id {
		c.resetRoundLocked()
		c.emit(EventRoundReset, c.stateLocked())
	}
	c.emit(EventBacklogChanged, c.store.List())
	return nil
}

// Advance points the session at the first unfinished feature.
// A round left open is discarded.
func (c *Coordinator) Advance(ctx context.Context, token domain.Token) (domain.Feature, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.actorLocked(token, domain.RoleProductOwner); err != nil {
		return domain.Feature{}, err
	}
	if c.ind.VoteStarted {
		c.resetRoundLocked()
		c.emit(EventRoundReset, c.stateLocked())
	}
	return c.advanceLocked(ctx)
}

func (c *Coordinator) advanceLocked(ctx context.Context) (domain.Feature, error) {
	next, ok := c.store.NextUnfinished()
	if !ok {
		return domain.Feature{}, domain.NotFound("no unfinished feature left in the backlog")
	}
	c.ind.CurrentFeatureID = next.ID
	c.store.Save(ctx)
	c.emit(EventFeatureChanged, next)
	log.Info().Str("module", "app.coordinator").Int("feature_id", next.ID).Msg("advanced to next feature")
	return next, nil
}
