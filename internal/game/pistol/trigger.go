package pistol

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/sidearm/internal/game/host"
)

// Breech is the chamber as seen by the trigger.
type Breech interface {
	HasRound() bool
	Fire(holder host.Haptics) bool
	DryFire()
}

// Battery reports whether the slide is closed.
type Battery interface {
	InBattery() bool
}

// FiringController is the single entry point for firing.
type FiringController struct {
	breech           Breech
	battery          Battery
	requireInBattery bool
	holder           host.Haptics
	logger           *zap.Logger
}

// NewFiringController returns a FiringController over breech. battery may be
// nil, in which case the slide is never consulted.
//
// Precondition: breech and logger must be non-nil.
func NewFiringController(breech Breech, battery Battery, requireInBattery bool, logger *zap.Logger) *FiringController {
	if breech == nil || logger == nil {
		panic("pistol.NewFiringController: breech and logger must not be nil")
	}
	return &FiringController{
		breech:           breech,
		battery:          battery,
		requireInBattery: requireInBattery,
		logger:           logger,
	}
}

// SetHolder sets the device that receives recoil. nil clears it.
func (f *FiringController) SetHolder(h host.Haptics) {
	f.holder = h
}

// PullTrigger fires the chambered round or dry-fires when the chamber is empty.
func (f *FiringController) PullTrigger() host.Outcome {
	if f.requireInBattery && f.battery != nil && !f.battery.InBattery() {
		f.logger.Debug("trigger blocked: slide out of battery")
		return host.OutcomeBlocked
	}
	if f.breech.HasRound() && f.breech.Fire(f.holder) {
		return host.OutcomeFired
	}
	f.breech.DryFire()
	return host.OutcomeDryFire
}
