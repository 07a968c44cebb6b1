// Package backlog owns the ordered collection of features and its persistence.
//
// The Store never surfaces persistence failures to callers: load and save
// errors are logged and the in-memory list stays authoritative.
package backlog

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/dkeye/PlanningPoker/internal/domain"
	"github.com/rs/zerolog/log"
)

//go:generate mockgen -destination=mocks/persister.go -package=mocks github.com/dkeye/PlanningPoker/internal/backlog Persister

// Persister reads and writes the full ordered feature list.
type Persister interface {
	Load(ctx context.Context) ([]domain.Feature, error)
	Save(ctx context.Context, features []domain.Feature) error
}

type Store struct {
	mu        sync.RWMutex
	features  []domain.Feature
	lastID    int
	persister Persister
	validator *Validator
}

func NewStore(p Persister, limits Limits) *Store {
	return &Store{
		persister: p,
		validator: NewValidator(limits),
	}
}

// Load replaces the in-memory list with the persisted one.
// A missing or malformed source leaves the store empty.
func (s *Store) Load(ctx context.Context) []domain.Feature {
	features, err := s.persister.Load(ctx)
	if err != nil {
		log.Error().Err(err).Str("module", "backlog.store").Msg("load failed, starting with empty backlog")
		features = nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.features = cloneAll(features)
	s.lastID = max(s.lastID, maxID(s.features))
	s.sortLocked()
	log.Info().Str("module", "backlog.store").Int("features", len(s.features)).Msg("backlog loaded")
	return cloneAll(s.features)
}

// Sort puts unfinished features first, each group by ascending priority.
func (s *Store) Sort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sortLocked()
}

func (s *Store) sortLocked() {
	slices.SortStableFunc(s.features, compareFeatures)
}

func compareFeatures(a, b domain.Feature) int {
	if a.Done() != b.Done() {
		if a.Done() {
			return 1
		}
		return -1
	}
	return cmp.Compare(a.Priority, b.Priority)
}

// Save writes the current list through the store's persister.
func (s *Store) Save(ctx context.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.saveLocked(ctx, s.persister)
}

// SaveTo writes the current list through another persister, e.g. a pause snapshot.
func (s *Store) SaveTo(ctx context.Context, p Persister) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.saveLocked(ctx, p)
}

func (s *Store) saveLocked(ctx context.Context, p Persister) {
	if p == nil {
		return
	}
	if err := p.Save(ctx, cloneAll(s.features)); err != nil {
		log.Error().Err(err).Str("module", "backlog.store").Msg("save failed")
	}
}

// Add validates f, assigns the next id, and persists the re-sorted list.
func (s *Store) Add(ctx context.Context, f domain.Feature) (domain.Feature, error) {
	if err := s.validator.Feature(f); err != nil {
		return domain.Feature{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastID = max(s.lastID, maxID(s.features)) + 1
	f = f.Clone()
	f.ID = s.lastID
	if f.Status == "" {
		f.Status = domain.StatusTodo
	}
	if f.VotingMode == "" {
		f.VotingMode = domain.VotingUnanimous
	}
	s.features = append(s.features, f)
	s.sortLocked()
	s.saveLocked(ctx, s.persister)

	log.Info().Str("module", "backlog.store").Int("feature_id", f.ID).Str("name", f.Name).Msg("feature added")
	return f.Clone(), nil
}

func (s *Store) Get(id int) (domain.Feature, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.features[i].Clone(), true
	}
	return domain.Feature{}, false
}

// Update applies the present fields of patch to feature id.
// Only those fields are validated.
func (s *Store) Update(ctx context.Context, id int, patch domain.FeaturePatch) (domain.Feature, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return domain.Feature{}, domain.NotFound("feature not found")
	}
	if err := s.validator.Patch(patch); err != nil {
		return domain.Feature{}, err
	}
	updated := s.features[i].Clone()
	patch.Apply(&updated)
	s.features[i] = updated
	s.sortLocked()
	s.saveLocked(ctx, s.persister)

	log.Info().Str("module", "backlog.store").Int("feature_id", id).Msg("feature updated")
	return updated.Clone(), nil
}

// Delete removes feature id and reports whether it existed.
func (s *Store) Delete(ctx context.Context, id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i >= 0 {
		s.features = slices.Delete(s.features, i, i+1)
		log.Info().Str("module", "backlog.store").Int("feature_id", id).Msg("feature deleted")
	}
	s.saveLocked(ctx, s.persister)
	return i >= 0
}

// Replace swaps the whole list, e.g. when resuming from a snapshot.
func (s *Store) Replace(ctx context.Context, features []domain.Feature) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.features = cloneAll(features)
	s.lastID = max(s.lastID, maxID(s.features))
	s.sortLocked()
	s.saveLocked(ctx, s.persister)
}

// HighestPriority returns the head of the sorted list.
func (s *Store) HighestPriority() (domain.Feature, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.features) == 0 {
		return domain.Feature{}, false
	}
	return s.features[0].Clone(), true
}

// NextUnfinished returns the first feature not yet done, scanning the
// sorted list from the start.
func (s *Store) NextUnfinished() (domain.Feature, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.features {
		if !f.Done() {
			return f.Clone(), true
		}
	}
	return domain.Feature{}, false
}

func (s *Store) List() []domain.Feature {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.features)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.features)
}

func (s *Store) indexLocked(id int) int {
	return slices.IndexFunc(s.features, func(f domain.Feature) bool { return f.ID == id })
}

func cloneAll(in []domain.Feature) []domain.Feature {
	out := make([]domain.Feature, len(in))
	for i, f := range in {
		out[i] = f.Clone()
	}
	return out
}

func maxID(features []domain.Feature) int {
	m := 0
	for _, f := range features {
		m = max(m, f.ID)
	}
	return m
}
