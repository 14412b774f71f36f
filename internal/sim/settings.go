package sim

import (
	"github.com/cory-johannsen/sidearm/internal/config"
	"github.com/cory-johannsen/sidearm/internal/game/chamber"
	"github.com/cory-johannsen/sidearm/internal/game/pistol"
	"github.com/cory-johannsen/sidearm/internal/game/slide"
	"github.com/cory-johannsen/sidearm/internal/game/well"
)

// Settings maps loaded configuration onto the host tunables and the
// per-component tunables pistol.New takes.
func Settings(c config.Config) (Config, pistol.Config) {
	s := Config{
		TickInterval:     c.Sim.TickInterval,
		LoadAnimation:    c.Sim.LoadAnimation,
		ReleaseAnimation: c.Sim.ReleaseAnimation,
		FireAnimation:    c.Sim.FireAnimation,
		CasingEventDelay: c.Sim.CasingEventDelay,
		SensorRadius:     c.Sim.SensorRadius,
		LinearDamping:    c.Sim.LinearDamping,
	}
	p := pistol.Config{
		Chamber: chamber.Config{
			CartridgeEjectionPower: c.Pistol.CartridgeEjectionPower,
			CartridgeDespawnAfter:  c.Pistol.CartridgeDespawnAfter,
			AutoRechamber:          c.Pistol.AutoRechamber,
			HapticAmplitude:        c.Pistol.HapticAmplitude,
			HapticDuration:         c.Pistol.HapticDuration,
		},
		Well: well.Config{EjectionPower: c.MagazineWell.EjectionPower},
		Slide: slide.Config{
			MinPosition:      c.Slide.MinPosition,
			MaxPosition:      c.Slide.MaxPosition,
			ReturnSpeed:      c.Slide.ReturnSpeed,
			PullThreshold:    c.Slide.PullThreshold,
			ReleaseThreshold: c.Slide.ReleaseThreshold,
		},
		RequireSlideInBattery: c.Pistol.RequireSlideInBattery,
	}
	return s, p
}
