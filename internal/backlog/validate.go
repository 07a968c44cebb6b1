package backlog

import (
	"fmt"
	"strings"

	"github.com/dkeye/PlanningPoker/internal/domain"
	"github.com/go-playground/validator/v10"
)

// Limits bounds the numeric feature fields.
type Limits struct {
	PriorityMin   int `mapstructure:"priority_min"`
	PriorityMax   int `mapstructure:"priority_max"`
	DifficultyMin int `mapstructure:"difficulty_min"`
	DifficultyMax int `mapstructure:"difficulty_max"`
}

func DefaultLimits() Limits {
	return Limits{PriorityMin: 1, PriorityMax: 10, DifficultyMin: 1, DifficultyMax: 100}
}

// Validator checks feature fields and reports failures keyed by field name.
type Validator struct {
	limits   Limits
	validate *validator.Validate
}

func NewValidator(limits Limits) *Validator {
	return &Validator{limits: limits, validate: validator.New()}
}

// Feature returns a domain InvalidInput error carrying every failing field, or nil.
func (v *Validator) Feature(f domain.Feature) error {
	return v.check(f, func(string) bool { return true })
}

// Patch checks only the fields present in p, so a stored feature that no
// longer fits the limits can still change status.
func (v *Validator) Patch(p domain.FeaturePatch) error {
	var f domain.Feature
	p.Apply(&f)
	present := map[string]bool{
		"name":                  p.Name != nil,
		"priority":              p.Priority != nil,
		"difficulty":            p.Difficulty != nil,
		"status":                p.Status != nil,
		"voting_mode":           p.VotingMode != nil,
		"expected_participants": p.ExpectedParticipants != nil,
	}
	return v.check(f, func(field string) bool { return present[field] })
}

func (v *Validator) check(f domain.Feature, want func(field string) bool) error {
	fields := make(map[string]string)

	if want("name") && strings.TrimSpace(f.Name) == "" {
		fields["name"] = "name is required"
	}
	if want("priority") {
		if err := v.validate.Var(f.Priority, rangeTag(v.limits.PriorityMin, v.limits.PriorityMax)); err != nil {
			fields["priority"] = fmt.Sprintf("priority must be between %d and %d", v.limits.PriorityMin, v.limits.PriorityMax)
		}
	}
	if want("difficulty") {
		if err := v.validate.Var(f.Difficulty, rangeTag(v.limits.DifficultyMin, v.limits.DifficultyMax)); err != nil {
			fields["difficulty"] = fmt.Sprintf("difficulty must be between %d and %d", v.limits.DifficultyMin, v.limits.DifficultyMax)
		}
	}
	if want("status") {
		if err := v.validate.Var(string(f.Status), "omitempty,oneof=todo in_progress done"); err != nil {
			fields["status"] = "status must be one of todo, in_progress, done"
		}
	}
	if want("voting_mode") {
		if err := v.validate.Var(string(f.VotingMode), "omitempty,oneof=unanimous average"); err != nil {
			fields["voting_mode"] = "voting mode must be unanimous or average"
		}
	}
	if want("expected_participants") {
		for _, p := range f.ExpectedParticipants {
			if strings.TrimSpace(p) == "" {
				fields["expected_participants"] = "participant pseudonyms must not be empty"
				break
			}
		}
	}

	if len(fields) > 0 {
		return domain.NewFieldError(fields)
	}
	return nil
}

func rangeTag(lo, hi int) string {
	return fmt.Sprintf("min=%d,max=%d", lo, hi)
}
