package app

import (
	"strings"
	"sync"

	"github.com/dkeye/PlanningPoker/internal/domain"
	"github.com/rs/zerolog/log"
)

// Registry correlates pseudonyms with session tokens and tracks which
// identity each token is currently acting as.
type Registry struct {
	mu     sync.RWMutex
	tokens map[string]domain.Token // folded pseudonym -> token
	active map[domain.Token]string // token -> acting pseudonym
}

func NewRegistry() *Registry {
	return &Registry{
		tokens: make(map[string]domain.Token),
		active: make(map[domain.Token]string),
	}
}

func fold(pseudonym string) string {
	return strings.ToLower(strings.TrimSpace(pseudonym))
}

// Bind records pseudonym -> token and makes the pseudonym the token's active identity.
func (r *Registry) Bind(pseudonym string, token domain.Token) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[fold(pseudonym)] = token
	r.active[token] = pseudonym
	log.Info().Str("module", "app.registry").Str("token", string(token)).Str("pseudonym", pseudonym).Msg("bound pseudonym")
}

// Forget drops the token's binding and every active identity pointing at pseudonym.
func (r *Registry) Forget(token domain.Token, pseudonym string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, fold(pseudonym))
	delete(r.active, token)
	for t, p := range r.active {
		if domain.SamePseudonym(p, pseudonym) {
			delete(r.active, t)
		}
	}
	log.Info().Str("module", "app.registry").Str("token", string(token)).Str("pseudonym", pseudonym).Msg("forgot pseudonym")
}

func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens = make(map[string]domain.Token)
	r.active = make(map[domain.Token]string)
	log.Info().Str("module", "app.registry").Msg("registry cleared")
}

func (r *Registry) SetActive(token domain.Token, pseudonym string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active[token] = pseudonym
	log.Info().Str("module", "app.registry").Str("token", string(token)).Str("pseudonym", pseudonym).Msg("active identity set")
}

func (r *Registry) Active(token domain.Token) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.active[token]
	return p, ok
}
