package sim

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/sidearm/internal/game/host"
	"github.com/cory-johannsen/sidearm/internal/game/pistol"
	"github.com/cory-johannsen/sidearm/internal/game/prop"
	"github.com/cory-johannsen/sidearm/internal/game/rng"
)

// Scenario actions.
const (
	ActionGrabPistol     = "grab_pistol"
	ActionDropPistol     = "drop_pistol"
	ActionInsertMagazine = "insert_magazine"
	ActionReinsert       = "reinsert_magazine"
	ActionEject          = "eject"
	ActionRelease        = "release"
	ActionTakeReleased   = "take_released"
	ActionPullSlide      = "pull_slide"
	ActionReleaseSlide   = "release_slide"
	ActionRackSlide      = "rack_slide"
	ActionChamber        = "chamber"
	ActionPullTrigger    = "pull_trigger"
	ActionWait           = "wait"
	ActionSettle         = "settle"
)

var knownActions = map[string]bool{
	ActionGrabPistol: true, ActionDropPistol: true, ActionInsertMagazine: true,
	ActionReinsert: true, ActionEject: true, ActionRelease: true,
	ActionTakeReleased: true, ActionPullSlide: true, ActionReleaseSlide: true,
	ActionRackSlide: true, ActionChamber: true, ActionPullTrigger: true,
	ActionWait: true, ActionSettle: true,
}

// ErrInvalidScenario wraps every structural scenario problem.
var ErrInvalidScenario = errors.New("sim: invalid scenario")

// Expect is checked after a step. Nil fields are not checked.
type Expect struct {
	WellState  *string `yaml:"well_state"`
	WellRounds *int    `yaml:"well_rounds"`
	Chambered  *bool   `yaml:"chambered"`
	// Outcome is checked after every repeat of a pull_trigger step.
	Outcome *string `yaml:"outcome"`
	// Journal maps event names to their total count so far.
	Journal map[string]int `yaml:"journal"`
	// Bodies maps prefabs to their live count.
	Bodies map[string]int `yaml:"bodies"`
}

// Step is one scripted action.
type Step struct {
	Action string `yaml:"action"`
	// Rounds is the fresh magazine's load for insert_magazine; nil means full.
	Rounds   *int    `yaml:"rounds"`
	Duration string  `yaml:"duration"`
	Repeat   int     `yaml:"repeat"`
	Expect   *Expect `yaml:"expect"`
}

// Scenario is an ordered list of steps against one pistol.
type Scenario struct {
	Name   string `yaml:"name"`
	Pistol string `yaml:"pistol"`
	Steps  []Step `yaml:"steps"`
}

// Validate checks that the scenario can be run.
//
// Postcondition: returns nil iff every step names a known action and every
// duration parses.
func (s *Scenario) Validate() error {
	var errs []error
	if s.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if s.Pistol == "" {
		errs = append(errs, errors.New("pistol must not be empty"))
	}
	if len(s.Steps) == 0 {
		errs = append(errs, errors.New("steps must not be empty"))
	}
	for i, st := range s.Steps {
		if !knownActions[st.Action] {
			errs = append(errs, fmt.Errorf("step %d: unknown action %q", i+1, st.Action))
		}
		if st.Repeat < 0 {
			errs = append(errs, fmt.Errorf("step %d: repeat must be >= 0", i+1))
		}
		if st.Action == ActionWait {
			if _, err := time.ParseDuration(st.Duration); err != nil {
				errs = append(errs, fmt.Errorf("step %d: duration: %w", i+1, err))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w %q: %w", ErrInvalidScenario, s.Name, errors.Join(errs...))
	}
	return nil
}

// LoadScenario parses and validates the scenario at path.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario %q: %w", path, err)
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parsing scenario %q: %w", path, err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// LoadScenarios loads every *.yaml file in dir in lexicographic order.
func LoadScenarios(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading scenario dir %q: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".yaml" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	out := make([]*Scenario, 0, len(names))
	for _, n := range names {
		sc, err := LoadScenario(filepath.Join(dir, n))
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, nil
}

// Report is the result of one scenario run.
type Report struct {
	Scenario string
	Steps    int
	Failures []string
	Elapsed  time.Duration
}

// Passed reports whether every expectation held.
func (r *Report) Passed() bool { return len(r.Failures) == 0 }

// Runner executes scenarios against fresh ranges.
type Runner struct {
	Registry *prop.Registry
	Sim      Config
	Pistol   pistol.Config
	// Audio and Notifiers are optional. Notifiers returns the event sink for
	// a pistol definition, typically its script hooks.
	Audio     host.Audio
	Notifiers func(def *prop.PistolDef) host.Notifier
	// Seed makes cartridge ejection deterministic when non-zero.
	Seed   uint64
	Logger *zap.Logger
}

// Run plays sc on a new range. The returned error covers problems that stop
// the run; unmet expectations are reported as Failures.
//
// Precondition: r.Registry and r.Logger must be non-nil.
func (r *Runner) Run(ctx context.Context, sc *Scenario) (*Report, error) {
	def := r.Registry.Pistol(sc.Pistol)
	if def == nil {
		return nil, fmt.Errorf("%w %q: unknown pistol %q", ErrInvalidScenario, sc.Name, sc.Pistol)
	}
	mag := r.Registry.Magazine(def.Magazine)
	var src rng.Source = rng.NewCryptoSource()
	if r.Seed != 0 {
		src = rng.NewSeededSource(r.Seed)
	}
	var next host.Notifier
	if r.Notifiers != nil {
		next = r.Notifiers(def)
	}
	logger := r.Logger.With(zap.String("scenario", sc.Name))
	rg, err := NewRange(r.Sim, r.Pistol, def, mag, r.Audio, next, src, logger)
	if err != nil {
		return nil, err
	}

	rep := &Report{Scenario: sc.Name}
	for i, st := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		label := fmt.Sprintf("step %d (%s)", i+1, st.Action)
		times := max(st.Repeat, 1)
		for n := 0; n < times; n++ {
			if err := r.apply(rg, mag, st); err != nil {
				return rep, fmt.Errorf("%s: %w", label, err)
			}
			if st.Expect != nil && st.Expect.Outcome != nil && rg.LastOutcome() != *st.Expect.Outcome {
				rep.Failures = append(rep.Failures, fmt.Sprintf("%s repeat %d: outcome = %q, want %q",
					label, n+1, rg.LastOutcome(), *st.Expect.Outcome))
			}
		}
		rep.Steps++
		if st.Expect != nil {
			for _, f := range check(rg, st.Expect) {
				rep.Failures = append(rep.Failures, label+": "+f)
			}
		}
	}
	rep.Elapsed = rg.World().Now()
	logger.Info("scenario finished",
		zap.Int("steps", rep.Steps),
		zap.Int("failures", len(rep.Failures)),
		zap.Duration("sim_time", rep.Elapsed),
	)
	return rep, nil
}

func (r *Runner) apply(rg *Range, mag *prop.MagazineDef, st Step) error {
	switch st.Action {
	case ActionGrabPistol:
		rg.GrabPistol()
	case ActionDropPistol:
		rg.DropPistol()
	case ActionInsertMagazine:
		rounds := mag.Rounds
		if st.Rounds != nil {
			rounds = *st.Rounds
		}
		if _, err := rg.LoadFreshMagazine(rounds); err != nil {
			return err
		}
		rg.Settle()
	case ActionReinsert:
		id := rg.LeftHolding()
		if id == "" {
			return fmt.Errorf("%w: left hand is empty", ErrNoMagazine)
		}
		if _, err := rg.InsertMagazine(id); err != nil {
			return err
		}
		rg.Settle()
	case ActionEject:
		rg.Eject()
		rg.Settle()
	case ActionRelease:
		rg.Release()
		rg.Settle()
	case ActionTakeReleased:
		rg.TakeReleasedMagazine()
	case ActionPullSlide:
		rg.PullSlide()
	case ActionReleaseSlide:
		rg.ReleaseSlide()
		rg.Settle()
	case ActionRackSlide:
		rg.RackSlide()
	case ActionChamber:
		rg.Chamber()
	case ActionPullTrigger:
		rg.PullTrigger()
	case ActionWait:
		d, err := time.ParseDuration(st.Duration)
		if err != nil {
			return err
		}
		rg.Wait(d)
	case ActionSettle:
		rg.Settle()
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidScenario, st.Action)
	}
	return nil
}

func check(rg *Range, e *Expect) []string {
	st := rg.Status()
	var out []string
	if e.WellState != nil && st.WellState != *e.WellState {
		out = append(out, fmt.Sprintf("well_state = %q, want %q", st.WellState, *e.WellState))
	}
	if e.WellRounds != nil && st.WellRounds != *e.WellRounds {
		out = append(out, fmt.Sprintf("well_rounds = %d, want %d", st.WellRounds, *e.WellRounds))
	}
	if e.Chambered != nil && st.Chambered != *e.Chambered {
		out = append(out, fmt.Sprintf("chambered = %t, want %t", st.Chambered, *e.Chambered))
	}
	for _, name := range sortedKeys(e.Journal) {
		if got := rg.Journal().Count(name); got != e.Journal[name] {
			out = append(out, fmt.Sprintf("journal[%s] = %d, want %d", name, got, e.Journal[name]))
		}
	}
	for _, prefab := range sortedKeys(e.Bodies) {
		if got := rg.World().CountPrefab(prefab); got != e.Bodies[prefab] {
			out = append(out, fmt.Sprintf("bodies[%s] = %d, want %d", prefab, got, e.Bodies[prefab]))
		}
	}
	return out
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FormatReport renders rep as indented text.
func FormatReport(rep *Report) string {
	var b strings.Builder
	status := "PASS"
	if !rep.Passed() {
		status = "FAIL"
	}
	fmt.Fprintf(&b, "%s %s (%d steps, %s simulated)\n", status, rep.Scenario, rep.Steps, rep.Elapsed)
	for _, f := range rep.Failures {
		fmt.Fprintf(&b, "    %s\n", f)
	}
	return b.String()
}
