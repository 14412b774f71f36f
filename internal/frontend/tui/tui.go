// Package tui is the terminal front end for the range simulator. Keys drive
// the hands; a fixed ticker advances the simulation and redraws.
package tui

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/cory-johannsen/sidearm/internal/sim"
)

// Help lists the key bindings shown on the bottom line.
const Help = "g grab/drop  m magazine  e eject  r release  t take/reinsert  s rack  c chamber  space fire  q quit"

const maxLog = 200

var (
	styleTitle = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleLabel = tcell.StyleDefault.Foreground(tcell.ColorTeal)
	styleValue = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleLog   = tcell.StyleDefault.Foreground(tcell.ColorSilver)
	styleHelp  = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleAlert = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
)

// UI renders a sim.Range on a tcell screen.
//
// All range access happens on the goroutine running Run.
type UI struct {
	screen tcell.Screen
	rg     *sim.Range
	tick   time.Duration
	logger *zap.Logger

	lastSeq uint64
	lines   []string
	message string

	quit     chan struct{}
	quitOnce sync.Once
}

// New returns a UI drawing rg on screen every tick.
//
// Precondition: screen is initialised; rg and logger are non-nil; tick > 0.
func New(screen tcell.Screen, rg *sim.Range, tick time.Duration, logger *zap.Logger) *UI {
	if screen == nil || rg == nil || logger == nil {
		panic("tui.New: screen, rg, and logger must not be nil")
	}
	if tick <= 0 {
		tick = sim.DefaultConfig().TickInterval
	}
	return &UI{
		screen: screen,
		rg:     rg,
		tick:   tick,
		logger: logger,
		quit:   make(chan struct{}),
	}
}

// Run polls input and ticks the range until the user quits or Stop is
// called.
func (u *UI) Run() error {
	ticker := time.NewTicker(u.tick)
	defer ticker.Stop()

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := u.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-u.quit:
				return
			}
		}
	}()

	u.Draw()
	for {
		select {
		case ev := <-events:
			if !u.HandleEvent(ev) {
				u.Stop()
				return nil
			}
		case <-ticker.C:
			u.Step(u.tick)
		case <-u.quit:
			return nil
		}
	}
}

// Stop ends Run. Safe to call more than once and from any goroutine.
func (u *UI) Stop() {
	u.quitOnce.Do(func() { close(u.quit) })
}

// Step advances the range by dt and redraws.
func (u *UI) Step(dt time.Duration) {
	u.rg.Tick(dt)
	u.Draw()
}

// HandleEvent applies one terminal event. Reports false when the user quit.
func (u *UI) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return u.HandleKey(ev.Key(), ev.Rune())
	case *tcell.EventResize:
		u.screen.Sync()
		u.Draw()
	}
	return true
}

// HandleKey applies one key press. Reports false for the quit keys.
func (u *UI) HandleKey(key tcell.Key, r rune) bool {
	switch key {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyRune:
	default:
		return true
	}

	u.message = ""
	u.logger.Debug("key", zap.String("key", string(r)))
	switch r {
	case 'q':
		return false
	case 'g':
		if u.rg.Status().Held {
			u.rg.DropPistol()
		} else if !u.rg.GrabPistol() {
			u.message = "pistol is held by another hand"
		}
	case 'm':
		ok, err := u.rg.LoadFreshMagazine(u.rg.MagazineDef().Rounds)
		switch {
		case err != nil:
			u.message = err.Error()
		case !ok:
			u.message = "magazine well is busy"
		}
	case 'e':
		if !u.rg.Eject() {
			u.message = "nothing to eject"
		}
	case 'r':
		if !u.rg.Release() {
			u.message = "nothing to release"
		}
	case 't':
		u.takeOrReinsert()
	case 's':
		u.rg.PullSlide()
		u.rg.ReleaseSlide()
	case 'c':
		if !u.rg.Chamber() {
			u.message = "no round to chamber"
		}
	case ' ':
		u.rg.PullTrigger()
	default:
		return true
	}
	u.Draw()
	return true
}

func (u *UI) takeOrReinsert() {
	if id := u.rg.LeftHolding(); id != "" {
		ok, err := u.rg.InsertMagazine(id)
		switch {
		case err != nil:
			u.message = err.Error()
		case !ok:
			u.message = "magazine well is busy"
		}
		return
	}
	if _, ok := u.rg.TakeReleasedMagazine(); !ok {
		u.message = "no released magazine to take"
	}
}

// Lines returns the journal lines collected so far, oldest first.
func (u *UI) Lines() []string { return u.lines }

// Message returns the last action feedback, or "".
func (u *UI) Message() string { return u.message }

// Draw renders the current status, the journal tail, and the key help.
func (u *UI) Draw() {
	u.collect()
	st := u.rg.Status()
	w, h := u.screen.Size()
	u.screen.Clear()

	put(u.screen, 0, 0, styleTitle, "SIDEARM RANGE  "+st.Pistol)
	put(u.screen, max(w-12, 0), 0, styleValue, fmt.Sprintf("t=%8.2fs", st.Now.Seconds()))

	hand := "empty"
	if st.Held {
		hand = "holding pistol"
	}
	well := st.WellState
	if st.WellState != "empty" {
		well = fmt.Sprintf("%s (%d rounds)", st.WellState, st.WellRounds)
	}
	chamber := "empty"
	if st.Chambered {
		chamber = "round"
	}
	battery := "out of battery"
	if st.InBattery {
		battery = "in battery"
	}
	rows := [][2]string{
		{"hand", hand},
		{"well", well},
		{"chamber", chamber},
		{"slide", fmt.Sprintf("%s %.2f %s", bar(st.SlideValue, 20), st.SlideValue, battery)},
		{"last", st.LastOutcome},
		{"bodies", fmt.Sprint(st.Bodies)},
	}
	for i, row := range rows {
		put(u.screen, 0, 2+i, styleLabel, fmt.Sprintf("%-8s", row[0]))
		put(u.screen, 9, 2+i, styleValue, row[1])
	}
	if u.message != "" {
		put(u.screen, 0, 2+len(rows), styleAlert, u.message)
	}

	top := 4 + len(rows)
	room := h - top - 1
	if room > 0 {
		tail := u.lines[max(len(u.lines)-room, 0):]
		for i, line := range tail {
			put(u.screen, 0, top+i, styleLog, line)
		}
	}
	if h > 0 {
		put(u.screen, 0, h-1, styleHelp, Help)
	}
	u.screen.Show()
}

func (u *UI) collect() {
	for _, e := range u.rg.Journal().Since(u.lastSeq) {
		u.lastSeq = e.Seq
		u.lines = append(u.lines, FormatEntry(e))
	}
	if over := len(u.lines) - maxLog; over > 0 {
		u.lines = append(u.lines[:0], u.lines[over:]...)
	}
}

// FormatEntry renders a journal entry as "<seconds> <name> k=v ...", with
// attributes in key order.
func FormatEntry(e sim.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%8.3fs %s", e.At.Seconds(), e.Name)
	keys := make([]string, 0, len(e.Attrs))
	for k := range e.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.Attrs[k])
	}
	return b.String()
}

func bar(v float64, width int) string {
	n := int(v*float64(width) + 0.5)
	n = min(max(n, 0), width)
	return "[" + strings.Repeat("#", n) + strings.Repeat("-", width-n) + "]"
}

func put(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		x++
	}
}
