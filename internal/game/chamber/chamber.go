// Package chamber tracks the single-round chamber fed from the magazine well.
package chamber

import (
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/sidearm/internal/game/host"
	"github.com/cory-johannsen/sidearm/internal/game/rng"
)

// ParamHasRoundInChamber is the animator bool mirroring the chamber state.
const ParamHasRoundInChamber = "HasRoundInChamber"

// CueFire is the recoil animation trigger.
const CueFire = "Fire"

// RoundSupply is the source of rounds for chambering.
type RoundSupply interface {
	HasInsertedMagazine() bool
	HeldRounds() int
	DeductRound() bool
}

// Config holds the chamber's tunables.
type Config struct {
	// CartridgeEjectionPower is the upper bound of the explosion force applied
	// to an ejected live cartridge; the lower bound is 70% of it.
	CartridgeEjectionPower float64
	// CartridgeDespawnAfter is how long an ejected cartridge stays in the world.
	CartridgeDespawnAfter time.Duration
	// AutoRechamber chambers the next round as part of every shot. When false
	// only a slide cycle chambers.
	AutoRechamber bool
	// HapticAmplitude and HapticDuration shape the recoil pulse.
	HapticAmplitude float64
	HapticDuration  time.Duration
}

// DefaultConfig returns the stock tunables.
func DefaultConfig() Config {
	return Config{
		CartridgeEjectionPower: 20,
		CartridgeDespawnAfter:  60 * time.Second,
		AutoRechamber:          true,
		HapticAmplitude:        1,
		HapticDuration:         100 * time.Millisecond,
	}
}

// Assets names the prop parts and anchors the chamber needs from the host.
type Assets struct {
	CartridgePrefab string
	// EjectionPoint is nil when the prop has no cartridge ejection port.
	EjectionPoint  *host.Anchor
	RotationOffset host.Vec3
	GunshotClip    string
	EmptyClickClip string
	MuzzleFlash    string
	SpentCasing    string
}

// Chamber holds at most one round.
type Chamber struct {
	cfg    Config
	assets Assets
	supply RoundSupply
	src    rng.Source
	fx     *host.Effects
	logger *zap.Logger
	loaded bool
}

// New returns an empty Chamber fed by supply.
//
// Precondition: supply, src, fx, and logger must be non-nil.
func New(cfg Config, assets Assets, supply RoundSupply, src rng.Source, fx *host.Effects, logger *zap.Logger) *Chamber {
	if supply == nil || src == nil || fx == nil || logger == nil {
		panic("chamber.New: supply, src, fx, and logger must not be nil")
	}
	return &Chamber{
		cfg:    cfg,
		assets: assets,
		supply: supply,
		src:    src,
		fx:     fx,
		logger: logger,
	}
}

// HasRound reports whether a round is chambered.
func (c *Chamber) HasRound() bool {
	return c.loaded
}

// AttemptChamber moves one round from the supply into the chamber.
//
// Idempotent while a round is chambered: the supply is not touched again.
// Postcondition: the animator bool reflects the returned value.
func (c *Chamber) AttemptChamber() bool {
	if !c.loaded {
		if c.supply.HasInsertedMagazine() && c.supply.HeldRounds() > 0 && c.supply.DeductRound() {
			c.loaded = true
			c.logger.Debug("round chambered", zap.Int("magazine_rounds", c.supply.HeldRounds()))
			c.fx.Notify("chambered", map[string]any{"magazine_rounds": c.supply.HeldRounds()})
		}
	}
	c.fx.SetBoolParam(ParamHasRoundInChamber, c.loaded)
	return c.loaded
}

// Fire discharges the chambered round. holder receives the recoil pulse and
// may be nil when nothing is holding the prop.
//
// Precondition: HasRound(); returns false without side effects otherwise.
func (c *Chamber) Fire(holder host.Haptics) bool {
	if !c.loaded {
		return false
	}
	c.loaded = false
	if c.cfg.AutoRechamber {
		c.AttemptChamber()
	} else {
		c.fx.SetBoolParam(ParamHasRoundInChamber, false)
	}
	c.fx.PlayOneShot(c.assets.GunshotClip)
	c.fx.Emit(c.assets.MuzzleFlash)
	c.fx.SendImpulse(holder, c.cfg.HapticAmplitude, c.cfg.HapticDuration)
	c.fx.PlayAnimation(CueFire)
	c.fx.Notify("fired", map[string]any{
		"magazine_rounds": c.supply.HeldRounds(),
		"chambered":       c.loaded,
	})
	return true
}

// DryFire plays the empty click.
func (c *Chamber) DryFire() {
	c.fx.PlayOneShot(c.assets.EmptyClickClip)
	c.fx.Notify("dry_fired", nil)
}

// EmitSpentCasing bursts the spent-casing effect. Driven by the fire
// animation's casing event.
func (c *Chamber) EmitSpentCasing() {
	c.fx.Emit(c.assets.SpentCasing)
}

// EjectChamberedRound clears the chamber and throws the live cartridge out of
// the ejection port with a randomized force and spin. The cartridge despawns
// after CartridgeDespawnAfter.
//
// Postcondition: HasRound() == false. Reports the spawned cartridge, if any.
func (c *Chamber) EjectChamberedRound() (host.EntityID, bool) {
	c.loaded = false
	c.fx.SetBoolParam(ParamHasRoundInChamber, false)

	if c.assets.CartridgePrefab == "" || c.assets.EjectionPoint == nil {
		c.logger.Warn("no cartridge prefab or ejection point assigned")
		return "", false
	}
	anchor := *c.assets.EjectionPoint
	pose := anchor.Pose()
	pose.Rotation = pose.Rotation.Add(c.assets.RotationOffset)

	id, ok := c.fx.Spawn(host.SpawnRequest{Prefab: c.assets.CartridgePrefab, Pose: pose})
	if !ok {
		return "", false
	}
	power := c.cfg.CartridgeEjectionPower
	origin := anchor.Position.Sub(anchor.Right.Mul(0.3)).Sub(anchor.Up.Mul(0.6))
	c.fx.AddExplosionForce(id, rng.Range(c.src, 0.7*power, power), origin, 1)
	yaw := rng.Range(c.src, 100, 500)
	pitch := rng.Range(c.src, 100, 1000)
	c.fx.AddTorque(id, host.Vec3{0, yaw, pitch}, host.ForceModeImpulse)
	c.fx.DestroyAfter(id, c.cfg.CartridgeDespawnAfter)
	c.fx.Notify("cartridge_ejected", map[string]any{"cartridge": string(id)})
	return id, true
}
