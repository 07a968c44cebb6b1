package app

import "github.com/dkeye/PlanningPoker/internal/core"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropFrame
	KickConnection
)

// Policy decides what happens to a push connection whose buffer is full.
type Policy interface {
	OnBackPressure(conn core.ConnID) BackpressureAction
}

type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(core.ConnID) BackpressureAction {
	return KickConnection
}
