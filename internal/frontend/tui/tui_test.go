package tui_test

import (
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/sidearm/internal/frontend/tui"
	"github.com/cory-johannsen/sidearm/internal/game/pistol"
	"github.com/cory-johannsen/sidearm/internal/game/prop"
	"github.com/cory-johannsen/sidearm/internal/game/rng"
	"github.com/cory-johannsen/sidearm/internal/game/well"
	"github.com/cory-johannsen/sidearm/internal/sim"
)

func newUI(t *testing.T) (*tui.UI, *sim.Range, tcell.SimulationScreen) {
	t.Helper()
	reg, err := prop.LoadRegistry("../../../content/props")
	require.NoError(t, err)
	def := reg.Pistol("p226")
	rg, err := sim.NewRange(sim.DefaultConfig(), pistol.DefaultConfig(), def, reg.Magazine(def.Magazine),
		nil, nil, rng.NewSeededSource(3), zaptest.NewLogger(t))
	require.NoError(t, err)

	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	screen.SetSize(100, 30)
	t.Cleanup(screen.Fini)
	return tui.New(screen, rg, time.Second/60, zaptest.NewLogger(t)), rg, screen
}

func row(s tcell.Screen, y int) string {
	w, _ := s.Size()
	var b strings.Builder
	for x := 0; x < w; x++ {
		r, _, _, _ := s.GetContent(x, y)
		if r == 0 {
			r = ' '
		}
		b.WriteRune(r)
	}
	return strings.TrimRight(b.String(), " ")
}

func screenText(s tcell.Screen) string {
	_, h := s.Size()
	lines := make([]string, h)
	for y := range lines {
		lines[y] = row(s, y)
	}
	return strings.Join(lines, "\n")
}

func press(u *tui.UI, keys string) {
	for _, r := range keys {
		u.HandleKey(tcell.KeyRune, r)
	}
}

func settle(u *tui.UI, d time.Duration) {
	for elapsed := time.Duration(0); elapsed < d; elapsed += time.Second / 60 {
		u.Step(time.Second / 60)
	}
}

func TestUI_DrawsStatusAndHelp(t *testing.T) {
	u, _, screen := newUI(t)
	u.Draw()
	assert.Contains(t, row(screen, 0), "SIDEARM RANGE  P226 Service Pistol")
	assert.Contains(t, screenText(screen), "well     empty")
	assert.Contains(t, screenText(screen), "chamber  empty")
	assert.Contains(t, screenText(screen), "in battery")
	assert.Equal(t, tui.Help, row(screen, 29))
}

func TestUI_KeysDriveTheRange(t *testing.T) {
	u, rg, screen := newUI(t)

	press(u, "g")
	assert.True(t, rg.Status().Held)

	press(u, "m")
	settle(u, time.Second)
	assert.Equal(t, well.StateLoaded, rg.Status().WellState)

	press(u, "s")
	settle(u, time.Second)
	assert.True(t, rg.Status().Chambered)
	assert.Equal(t, 14, rg.Status().WellRounds)

	press(u, " ")
	assert.Equal(t, "fired", rg.LastOutcome())
	assert.Contains(t, screenText(screen), "well     loaded (13 rounds)")
	assert.Contains(t, screenText(screen), "last     fired")

	press(u, "g")
	assert.False(t, rg.Status().Held)
}

func TestUI_JournalLinesAreShown(t *testing.T) {
	u, _, screen := newUI(t)
	press(u, "gm")
	settle(u, time.Second)

	lines := u.Lines()
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "magazine_loading rounds=15")
	assert.Contains(t, lines[1], "magazine_inserted rounds=15")
	assert.Contains(t, screenText(screen), "magazine_inserted rounds=15")
}

func TestUI_ReleaseTakeAndReinsert(t *testing.T) {
	u, rg, _ := newUI(t)
	press(u, "gm")
	settle(u, time.Second)

	press(u, "r")
	settle(u, time.Second)
	assert.Equal(t, well.StateEmpty, rg.Status().WellState)

	press(u, "t")
	assert.NotEmpty(t, rg.LeftHolding())
	press(u, "t")
	assert.Empty(t, rg.LeftHolding())
	settle(u, time.Second)
	assert.Equal(t, 15, rg.Status().WellRounds)
}

func TestUI_FeedbackForRefusedActions(t *testing.T) {
	u, _, screen := newUI(t)
	press(u, "e")
	assert.Equal(t, "nothing to eject", u.Message())
	assert.Contains(t, screenText(screen), "nothing to eject")

	press(u, "c")
	assert.Equal(t, "no round to chamber", u.Message())

	press(u, "t")
	assert.Equal(t, "no released magazine to take", u.Message())
}

func TestUI_QuitKeys(t *testing.T) {
	u, _, _ := newUI(t)
	assert.False(t, u.HandleKey(tcell.KeyRune, 'q'))
	assert.False(t, u.HandleKey(tcell.KeyEscape, 0))
	assert.False(t, u.HandleKey(tcell.KeyCtrlC, 0))
	assert.True(t, u.HandleKey(tcell.KeyRune, 'z'))
}

func TestUI_StopEndsRun(t *testing.T) {
	u, _, _ := newUI(t)
	done := make(chan error, 1)
	go func() { done <- u.Run() }()

	u.Stop()
	u.Stop()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
}

func TestFormatEntry_SortsAttributes(t *testing.T) {
	line := tui.FormatEntry(sim.Entry{
		At:    1500 * time.Millisecond,
		Name:  "fired",
		Attrs: map[string]any{"magazine_rounds": 13, "chambered": true},
	})
	assert.Equal(t, "   1.500s fired chambered=true magazine_rounds=13", line)
}
