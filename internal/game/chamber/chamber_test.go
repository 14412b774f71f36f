package chamber_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/sidearm/internal/game/chamber"
	"github.com/cory-johannsen/sidearm/internal/game/host"
	"github.com/cory-johannsen/sidearm/internal/game/host/hosttest"
	"github.com/cory-johannsen/sidearm/internal/game/rng"
)

// stubSupply is a RoundSupply backed by a plain counter.
type stubSupply struct {
	inserted bool
	held     int
	deducts  int
}

func (s *stubSupply) HasInsertedMagazine() bool { return s.inserted }
func (s *stubSupply) HeldRounds() int           { return s.held }
func (s *stubSupply) DeductRound() bool {
	if s.held <= 0 {
		return false
	}
	s.held--
	s.deducts++
	return true
}

func testAssets() chamber.Assets {
	return chamber.Assets{
		CartridgePrefab: "cartridge_9mm",
		EjectionPoint: &host.Anchor{
			Position: host.Vec3{0.05, 0.1, 0},
			Right:    host.Vec3{1, 0, 0},
			Up:       host.Vec3{0, 1, 0},
			Forward:  host.Vec3{0, 0, 1},
		},
		RotationOffset: host.Vec3{90, 0, 0},
		GunshotClip:    "gunshot",
		EmptyClickClip: "empty_click",
		MuzzleFlash:    "muzzle_flash",
		SpentCasing:    "spent_casing",
	}
}

func newChamber(t testing.TB, cfg chamber.Config, supply *stubSupply, logger *zap.Logger) (*chamber.Chamber, *hosttest.Recorder) {
	t.Helper()
	fx := host.NewEffects(logger)
	rec := hosttest.NewRecorder()
	rec.Attach(fx)
	return chamber.New(cfg, testAssets(), supply, rng.NewSeededSource(7), fx, logger), rec
}

func TestAttemptChamber_TakesRoundFromSupply(t *testing.T) {
	supply := &stubSupply{inserted: true, held: 15}
	c, rec := newChamber(t, chamber.DefaultConfig(), supply, zaptest.NewLogger(t))

	assert.True(t, c.AttemptChamber())
	assert.True(t, c.HasRound())
	assert.Equal(t, 14, supply.held)
	assert.True(t, rec.Bools[chamber.ParamHasRoundInChamber])
}

func TestAttemptChamber_IdempotentWhenLoaded(t *testing.T) {
	supply := &stubSupply{inserted: true, held: 15}
	c, _ := newChamber(t, chamber.DefaultConfig(), supply, zaptest.NewLogger(t))

	c.AttemptChamber()
	c.AttemptChamber()
	assert.Equal(t, 14, supply.held)
	assert.Equal(t, 1, supply.deducts)
}

func TestAttemptChamber_NoMagazineOrEmpty(t *testing.T) {
	for _, supply := range []*stubSupply{{inserted: false, held: 5}, {inserted: true, held: 0}} {
		c, rec := newChamber(t, chamber.DefaultConfig(), supply, zaptest.NewLogger(t))
		assert.False(t, c.AttemptChamber())
		assert.False(t, c.HasRound())
		v, set := rec.Bools[chamber.ParamHasRoundInChamber]
		assert.True(t, set, "animator bool is reported even when nothing chambers")
		assert.False(t, v)
	}
}

func TestFire_AutoRechambers(t *testing.T) {
	supply := &stubSupply{inserted: true, held: 2}
	c, rec := newChamber(t, chamber.DefaultConfig(), supply, zaptest.NewLogger(t))
	hand := hosttest.NewHand("right")
	c.AttemptChamber()

	require.True(t, c.Fire(hand))
	assert.True(t, c.HasRound())
	assert.Equal(t, 0, supply.held)
	assert.Equal(t, []string{"gunshot"}, rec.Clips)
	assert.Equal(t, []string{"muzzle_flash"}, rec.Effects)
	assert.Equal(t, []string{chamber.CueFire}, rec.Animations)
	assert.Equal(t, []hosttest.Impulse{{Amplitude: 1, Duration: 100 * time.Millisecond}}, hand.Impulses)
}

func TestFire_WithoutAutoRechamberLeavesChamberEmpty(t *testing.T) {
	cfg := chamber.DefaultConfig()
	cfg.AutoRechamber = false
	supply := &stubSupply{inserted: true, held: 5}
	c, rec := newChamber(t, cfg, supply, zaptest.NewLogger(t))
	c.AttemptChamber()

	require.True(t, c.Fire(nil))
	assert.False(t, c.HasRound())
	assert.Equal(t, 4, supply.held)
	assert.False(t, rec.Bools[chamber.ParamHasRoundInChamber])
}

func TestFire_EmptyChamberHasNoEffects(t *testing.T) {
	c, rec := newChamber(t, chamber.DefaultConfig(), &stubSupply{}, zaptest.NewLogger(t))
	assert.False(t, c.Fire(nil))
	assert.Empty(t, rec.Clips)
}

func TestFire_WithoutHolderWarnsMissingHaptics(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	c, _ := newChamber(t, chamber.DefaultConfig(), &stubSupply{inserted: true, held: 3}, zap.New(core))
	c.AttemptChamber()
	c.Fire(nil)
	c.Fire(nil)
	assert.Equal(t, 1, logs.FilterField(zap.String("collaborator", "haptics")).Len())
}

func TestDryFire_PlaysClickOnly(t *testing.T) {
	c, rec := newChamber(t, chamber.DefaultConfig(), &stubSupply{}, zaptest.NewLogger(t))
	c.DryFire()
	assert.Equal(t, []string{"empty_click"}, rec.Clips)
	assert.Empty(t, rec.Animations)
}

func TestEjectChamberedRound_SpawnsCartridge(t *testing.T) {
	supply := &stubSupply{inserted: true, held: 3}
	c, rec := newChamber(t, chamber.DefaultConfig(), supply, zaptest.NewLogger(t))
	c.AttemptChamber()

	id, ok := c.EjectChamberedRound()
	require.True(t, ok)
	assert.False(t, c.HasRound())

	spawn := rec.LastSpawn()
	assert.Equal(t, "cartridge_9mm", spawn.Prefab)
	assert.Equal(t, host.Vec3{90, 0, 0}, spawn.Pose.Rotation)

	require.Len(t, rec.Explosions, 1)
	ex := rec.Explosions[0]
	assert.Equal(t, id, ex.ID)
	assert.GreaterOrEqual(t, ex.Force, 14.0)
	assert.LessOrEqual(t, ex.Force, 20.0)
	assert.InDelta(t, 0.05-0.3, ex.Origin.X(), 1e-9)
	assert.InDelta(t, 0.1-0.6, ex.Origin.Y(), 1e-9)
	assert.Equal(t, 1.0, ex.Radius)

	require.Len(t, rec.Torques, 1)
	assert.Equal(t, host.ForceModeImpulse, rec.Torques[0].Mode)
	assert.Equal(t, 60*time.Second, rec.DestroyAfters[id])
}

func TestEjectChamberedRound_NoPortStillClears(t *testing.T) {
	logger := zaptest.NewLogger(t)
	fx := host.NewEffects(logger)
	rec := hosttest.NewRecorder()
	rec.Attach(fx)
	assets := testAssets()
	assets.EjectionPoint = nil
	c := chamber.New(chamber.DefaultConfig(), assets, &stubSupply{inserted: true, held: 1}, rng.NewCryptoSource(), fx, logger)
	c.AttemptChamber()

	_, ok := c.EjectChamberedRound()
	assert.False(t, ok)
	assert.False(t, c.HasRound())
	assert.Empty(t, rec.Spawns)
}

// TestProperty_EjectionRandomnessWithinBounds asserts the explosion force
// stays in [0.7p, p] and the spin torque in yaw [100,500], pitch [100,1000].
func TestProperty_EjectionRandomnessWithinBounds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		logger := zap.NewNop()
		fx := host.NewEffects(logger)
		rec := hosttest.NewRecorder()
		rec.Attach(fx)
		cfg := chamber.DefaultConfig()
		cfg.CartridgeEjectionPower = rapid.Float64Range(1, 100).Draw(rt, "power")
		c := chamber.New(cfg, testAssets(), &stubSupply{}, rng.NewSeededSource(rapid.Uint64().Draw(rt, "seed")), fx, logger)

		c.EjectChamberedRound()
		f := rec.Explosions[0].Force
		if f < 0.7*cfg.CartridgeEjectionPower || f > cfg.CartridgeEjectionPower {
			rt.Fatalf("force %v outside [%v, %v]", f, 0.7*cfg.CartridgeEjectionPower, cfg.CartridgeEjectionPower)
		}
		tq := rec.Torques[0].Torque
		if tq.X() != 0 || tq.Y() < 100 || tq.Y() > 500 || tq.Z() < 100 || tq.Z() > 1000 {
			rt.Fatalf("torque %+v out of bounds", tq)
		}
	})
}
