package sim_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/sidearm/internal/game/host"
	"github.com/cory-johannsen/sidearm/internal/game/magazine"
	"github.com/cory-johannsen/sidearm/internal/game/pistol"
	"github.com/cory-johannsen/sidearm/internal/game/prop"
	"github.com/cory-johannsen/sidearm/internal/game/rng"
	"github.com/cory-johannsen/sidearm/internal/game/well"
	"github.com/cory-johannsen/sidearm/internal/sim"
)

const contentDir = "../../content/props"

type eventSink struct{ names []string }

func (e *eventSink) Notify(name string, _ map[string]any) { e.names = append(e.names, name) }

func loadRegistry(t testing.TB) *prop.Registry {
	t.Helper()
	reg, err := prop.LoadRegistry(contentDir)
	require.NoError(t, err)
	return reg
}

func newRange(t testing.TB, pistolID string, next host.Notifier) *sim.Range {
	t.Helper()
	reg := loadRegistry(t)
	def := reg.Pistol(pistolID)
	require.NotNil(t, def)
	rg, err := sim.NewRange(sim.DefaultConfig(), pistol.DefaultConfig(), def, reg.Magazine(def.Magazine),
		nil, next, rng.NewSeededSource(7), zaptest.NewLogger(t))
	require.NoError(t, err)
	return rg
}

func loadedRange(t testing.TB, rounds int) *sim.Range {
	t.Helper()
	rg := newRange(t, "p226", nil)
	require.True(t, rg.GrabPistol())
	ok, err := rg.LoadFreshMagazine(rounds)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, rg.Settle())
	require.Equal(t, well.StateLoaded, rg.Pistol().Well().State())
	return rg
}

func magazinesInWorld(rg *sim.Range) []*magazine.Magazine {
	var out []*magazine.Magazine
	for _, id := range rg.World().BodyIDs() {
		b, _ := rg.World().Body(id)
		if m, ok := b.Domain.(*magazine.Magazine); ok {
			out = append(out, m)
		}
	}
	return out
}

func TestNewRange_RejectsMismatchedMagazine(t *testing.T) {
	reg := loadRegistry(t)
	_, err := sim.NewRange(sim.DefaultConfig(), pistol.DefaultConfig(), reg.Pistol("p226"), reg.Magazine("m17_17rd"),
		nil, nil, rng.NewSeededSource(1), zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestRange_InsertStartsLoadingAndSettleSeats(t *testing.T) {
	rg := newRange(t, "p226", nil)
	ok, err := rg.LoadFreshMagazine(15)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, well.StateLoading, rg.Pistol().Well().State())
	assert.Empty(t, magazinesInWorld(rg), "inserted magazine entity must be consumed")

	require.True(t, rg.Settle())
	st := rg.Status()
	assert.Equal(t, well.StateLoaded, st.WellState)
	assert.Equal(t, 15, st.WellRounds)
	assert.True(t, rg.World().Visible("magazine_model"))
}

func TestRange_SecondMagazineIsRefusedWhileLoaded(t *testing.T) {
	rg := loadedRange(t, 15)
	ok, err := rg.LoadFreshMagazine(3)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 15, rg.Pistol().Well().HeldRounds())
	require.Len(t, magazinesInWorld(rg), 1)
	assert.Equal(t, 3, magazinesInWorld(rg)[0].HeldRounds())
}

func TestRange_FullMagazineToDryFire(t *testing.T) {
	rg := loadedRange(t, 15)
	require.True(t, rg.Chamber())
	assert.Equal(t, 14, rg.Pistol().Well().HeldRounds())

	for i := 0; i < 14; i++ {
		require.Equal(t, host.OutcomeFired, rg.PullTrigger(), "pull %d", i+1)
	}
	assert.Equal(t, 0, rg.Pistol().Well().HeldRounds())
	assert.True(t, rg.Pistol().Chamber().HasRound())

	assert.Equal(t, host.OutcomeFired, rg.PullTrigger())
	assert.False(t, rg.Pistol().Chamber().HasRound())
	assert.Equal(t, host.OutcomeDryFire, rg.PullTrigger())
	assert.Equal(t, "dry_fire", rg.LastOutcome())

	assert.Len(t, rg.Right().Impulses(), 15)
	assert.Equal(t, 15, rg.Journal().Count("fired"))
	assert.Equal(t, 15, rg.World().EffectCount("muzzle_flash"))
}

func TestRange_FireAnimationEmitsSpentCasing(t *testing.T) {
	rg := loadedRange(t, 15)
	rg.Chamber()
	rg.PullTrigger()
	require.True(t, rg.Settle())
	assert.Equal(t, 1, rg.World().EffectCount("spent_casing"))
}

func TestRange_RapidPullsEachEmitSpentCasing(t *testing.T) {
	rg := loadedRange(t, 15)
	rg.Chamber()
	for i := 0; i < 5; i++ {
		require.Equal(t, host.OutcomeFired, rg.PullTrigger(), "pull %d", i+1)
	}
	require.True(t, rg.Settle())
	assert.Equal(t, 5, rg.World().EffectCount("muzzle_flash"))
	assert.Equal(t, 5, rg.World().EffectCount("spent_casing"))
}

func TestRange_EjectSpawnsMagazineWithRemainingRounds(t *testing.T) {
	rg := loadedRange(t, 5)
	require.True(t, rg.Eject())
	assert.Equal(t, well.StateEmpty, rg.Pistol().Well().State())
	assert.False(t, rg.World().Visible("magazine_model"))

	mags := magazinesInWorld(rg)
	require.Len(t, mags, 1)
	assert.Equal(t, 5, mags[0].Snapshot().Held)
	assert.Equal(t, magazine.Ejected, mags[0].Lifecycle())
	assert.False(t, mags[0].Loadable())
	assert.True(t, rg.World().Ignoring(mags[0].EntityID(), "p226_grip"))

	require.True(t, rg.Settle())
	assert.Equal(t, 1, rg.Journal().Count("magazine_rearmed"))
	assert.False(t, mags[0].ReleasedFromWell())
	assert.False(t, rg.World().Ignoring(mags[0].EntityID(), "p226_grip"))
	b, _ := rg.World().Body(mags[0].EntityID())
	assert.Equal(t, sim.FloorY, b.Pose.Position.Y())
}

func TestRange_EjectedMagazineCanBePickedUpAndReinserted(t *testing.T) {
	rg := loadedRange(t, 5)
	require.True(t, rg.Eject())
	require.True(t, rg.Settle())
	id := magazinesInWorld(rg)[0].EntityID()

	ok, err := rg.InsertMagazine(id)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, rg.Settle())
	assert.Equal(t, 5, rg.Pistol().Well().HeldRounds())
}

func TestRange_EjectNeedsAHand(t *testing.T) {
	rg := loadedRange(t, 5)
	rg.DropPistol()
	assert.False(t, rg.Eject())
	assert.Equal(t, well.StateLoaded, rg.Pistol().Well().State())
}

func TestRange_ReleaseHangsMagazineAtReleasePoint(t *testing.T) {
	rg := loadedRange(t, 15)
	require.True(t, rg.Chamber())
	require.True(t, rg.Release())
	assert.Equal(t, 14, rg.Pistol().Well().HeldRounds(), "releasing magazine still feeds the chamber")

	require.True(t, rg.Settle())
	assert.Equal(t, well.StateEmpty, rg.Pistol().Well().State())
	mags := magazinesInWorld(rg)
	require.Len(t, mags, 1)
	assert.Equal(t, magazine.Attached, mags[0].Lifecycle())
	b, _ := rg.World().Body(mags[0].EntityID())
	assert.True(t, b.Frozen)

	id, ok := rg.TakeReleasedMagazine()
	require.True(t, ok)
	assert.Equal(t, id, rg.LeftHolding())
	assert.Equal(t, 1, rg.Journal().Count("magazine_rearmed"))
	assert.True(t, mags[0].Loadable())

	ok, err := rg.InsertMagazine(id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, rg.LeftHolding())
	require.True(t, rg.Settle())
	assert.Equal(t, 14, rg.Pistol().Well().HeldRounds())
}

func TestRange_RackChambersFromEmpty(t *testing.T) {
	rg := loadedRange(t, 15)
	rg.RackSlide()
	assert.True(t, rg.Pistol().Chamber().HasRound())
	assert.Equal(t, 14, rg.Pistol().Well().HeldRounds())
	assert.Equal(t, 0, rg.World().CountPrefab("cartridge_9mm"))
	assert.True(t, rg.Status().InBattery)
	assert.True(t, rg.World().AnimatorEnabled())
}

func TestRange_RackWithLiveRoundThrowsCartridge(t *testing.T) {
	rg := loadedRange(t, 15)
	rg.RackSlide()
	rg.RackSlide()
	assert.Equal(t, 1, rg.World().CountPrefab("cartridge_9mm"))
	assert.Equal(t, 13, rg.Pistol().Well().HeldRounds())
	assert.True(t, rg.Pistol().Chamber().HasRound())
	assert.Equal(t, 1, rg.Journal().Count("cartridge_ejected"))

	rg.Wait(sim.DefaultConfig().TickInterval * 3700)
	assert.Equal(t, 0, rg.World().CountPrefab("cartridge_9mm"))
}

func TestRange_RackWithoutEjectorOnlyClearsChamber(t *testing.T) {
	rg := newRange(t, "m17", nil)
	rg.GrabPistol()
	_, err := rg.LoadFreshMagazine(17)
	require.NoError(t, err)
	rg.Settle()
	rg.RackSlide()
	rg.RackSlide()
	assert.Equal(t, 0, rg.World().CountPrefab("cartridge_9mm"))
	assert.Equal(t, 15, rg.Pistol().Well().HeldRounds())
	assert.True(t, rg.Pistol().Chamber().HasRound())
}

func TestRange_HeldSlidePausesAnimator(t *testing.T) {
	rg := loadedRange(t, 15)
	rg.PullSlide()
	assert.False(t, rg.World().AnimatorEnabled())
	assert.Equal(t, 0.0, rg.Status().SlideValue)
	assert.False(t, rg.Status().InBattery)

	rg.Wait(sim.DefaultConfig().TickInterval * 10)
	assert.Equal(t, 0.0, rg.Status().SlideValue, "held slide follows the hand, not the spring")

	rg.ReleaseSlide()
	require.True(t, rg.Settle())
	assert.Equal(t, 1.0, rg.Status().SlideValue)
	assert.True(t, rg.World().AnimatorEnabled())
}

func TestRange_SecondHandCannotTakeHeldPistol(t *testing.T) {
	rg := newRange(t, "p226", nil)
	require.True(t, rg.GrabPistol())
	rg.Left().Grab(rg.Pistol())
	assert.Equal(t, sim.RightHand, rg.Pistol().Holder().ID())
}

func TestRange_JournalForwardsToNextNotifier(t *testing.T) {
	sink := &eventSink{}
	rg := newRange(t, "p226", sink)
	rg.GrabPistol()
	_, err := rg.LoadFreshMagazine(15)
	require.NoError(t, err)
	rg.Settle()
	rg.Chamber()
	rg.PullTrigger()

	assert.Equal(t, []string{"magazine_loading", "magazine_inserted", "chambered", "chambered", "fired"}, sink.names)
	assert.Equal(t, uint64(5), rg.Journal().Seq())
}

func TestRange_InsertUnknownMagazineFails(t *testing.T) {
	rg := newRange(t, "p226", nil)
	_, err := rg.InsertMagazine("nope")
	assert.ErrorIs(t, err, sim.ErrNoMagazine)
}

func TestRange_SpawnRejectsInvalidRoundCount(t *testing.T) {
	rg := newRange(t, "p226", nil)
	_, err := rg.SpawnMagazine(16)
	assert.Error(t, err)
	_, err = rg.SpawnMagazine(-1)
	assert.Error(t, err)
}

func TestRange_RoundsAreConservedAcrossActions(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		rg := newRange(t, "p226", nil)
		rg.GrabPistol()
		start := rapid.IntRange(0, 15).Draw(rt, "rounds")
		_, err := rg.LoadFreshMagazine(start)
		if err != nil {
			rt.Fatalf("load: %v", err)
		}
		rg.Settle()

		fired, thrown := 0, 0
		actions := rapid.SliceOfN(rapid.SampledFrom([]string{"fire", "rack", "chamber"}), 1, 40).Draw(rt, "actions")
		for _, a := range actions {
			switch a {
			case "fire":
				if rg.PullTrigger() == host.OutcomeFired {
					fired++
				}
			case "rack":
				if rg.Pistol().Chamber().HasRound() {
					thrown++
				}
				rg.RackSlide()
			case "chamber":
				rg.Chamber()
			}
		}
		chambered := 0
		if rg.Pistol().Chamber().HasRound() {
			chambered = 1
		}
		if got := rg.Pistol().Well().HeldRounds() + chambered + fired + thrown; got != start {
			rt.Fatalf("rounds not conserved: well %d + chamber %d + fired %d + thrown %d != %d",
				rg.Pistol().Well().HeldRounds(), chambered, fired, thrown, start)
		}
	})
}
