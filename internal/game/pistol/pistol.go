// Package pistol assembles the magazine well, chamber, slide, and trigger into
// one grabbable prop and routes host input, sensor, and animation events to
// them.
package pistol

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/sidearm/internal/game/chamber"
	"github.com/cory-johannsen/sidearm/internal/game/event"
	"github.com/cory-johannsen/sidearm/internal/game/host"
	"github.com/cory-johannsen/sidearm/internal/game/rng"
	"github.com/cory-johannsen/sidearm/internal/game/slide"
	"github.com/cory-johannsen/sidearm/internal/game/well"
)

// EventEjectCasing is the fire animation's mid-clip event that throws the
// spent casing.
const EventEjectCasing = "EjectCasing"

// Config groups the tunables of every pistol component.
type Config struct {
	Chamber               chamber.Config
	Well                  well.Config
	Slide                 slide.Config
	RequireSlideInBattery bool
}

// DefaultConfig returns the stock tunables.
func DefaultConfig() Config {
	return Config{
		Chamber: chamber.DefaultConfig(),
		Well:    well.DefaultConfig(),
		Slide:   slide.DefaultConfig(),
	}
}

// Assets groups the prop parts of every pistol component.
type Assets struct {
	Name      string
	Well      well.Assets
	Chamber   chamber.Assets
	Slide     slide.Assets
	SlideAxis host.AxisFrame
}

// Pistol is the assembled prop.
type Pistol struct {
	id      host.EntityID
	name    string
	fx      *host.Effects
	logger  *zap.Logger
	well    *well.Well
	chamber *chamber.Chamber
	slide   *slide.Slide
	trigger *FiringController

	holder   host.Grabber
	tapSub   event.Subscription
	pressSub event.Subscription
}

// New assembles a Pistol with an empty well and chamber and the slide in
// battery.
//
// Precondition: src, fx, and logger must be non-nil.
func New(cfg Config, assets Assets, src rng.Source, fx *host.Effects, logger *zap.Logger) *Pistol {
	if src == nil || fx == nil || logger == nil {
		panic("pistol.New: src, fx, and logger must not be nil")
	}
	id := host.EntityID(uuid.NewString())
	logger = logger.With(zap.String("pistol", string(id)), zap.String("prop", assets.Name))

	w := well.New(cfg.Well, assets.Well, fx, logger.Named("well"))
	c := chamber.New(cfg.Chamber, assets.Chamber, w, src, fx, logger.Named("chamber"))
	s := slide.New(cfg.Slide, assets.Slide, assets.SlideAxis, c, fx, logger.Named("slide"))
	return &Pistol{
		id:      id,
		name:    assets.Name,
		fx:      fx,
		logger:  logger,
		well:    w,
		chamber: c,
		slide:   s,
		trigger: NewFiringController(c, s, cfg.RequireSlideInBattery, logger),
	}
}

// EntityID returns the pistol's entity id.
func (p *Pistol) EntityID() host.EntityID { return p.id }

// Name returns the prop definition name.
func (p *Pistol) Name() string { return p.name }

// Well returns the magazine well.
func (p *Pistol) Well() *well.Well { return p.well }

// Chamber returns the chamber.
func (p *Pistol) Chamber() *chamber.Chamber { return p.chamber }

// Slide returns the slide.
func (p *Pistol) Slide() *slide.Slide { return p.slide }

// Holder returns the grabber holding the pistol, or nil.
func (p *Pistol) Holder() host.Grabber { return p.holder }

// OnGrabbed binds g's primary tap to magazine ejection and its long press to
// magazine release. A pistol already held by another grabber ignores g.
func (p *Pistol) OnGrabbed(g host.Grabber) {
	if p.holder != nil {
		if p.holder.ID() != g.ID() {
			p.logger.Debug("grab refused: pistol already held",
				zap.String("holder", string(p.holder.ID())),
				zap.String("grabber", string(g.ID())),
			)
		}
		return
	}
	p.holder = g
	p.trigger.SetHolder(g)
	p.tapSub = g.PrimaryTap().Subscribe(func(struct{}) { p.AttemptEject() })
	p.pressSub = g.PrimaryLongPress().Subscribe(func(struct{}) { p.AttemptRelease() })
	p.logger.Debug("pistol grabbed", zap.String("grabber", string(g.ID())))
}

// OnReleased removes the bindings made for g.
func (p *Pistol) OnReleased(g host.Grabber) {
	if p.holder == nil || p.holder.ID() != g.ID() {
		return
	}
	p.holder.PrimaryTap().Unsubscribe(p.tapSub)
	p.holder.PrimaryLongPress().Unsubscribe(p.pressSub)
	p.holder = nil
	p.trigger.SetHolder(nil)
	p.logger.Debug("pistol released", zap.String("grabber", string(g.ID())))
}

// PullTrigger fires, dry-fires, or is blocked by an open slide.
func (p *Pistol) PullTrigger() host.Outcome {
	return p.trigger.PullTrigger()
}

// AttemptChamber chambers a round from the seated magazine.
func (p *Pistol) AttemptChamber() bool {
	return p.chamber.AttemptChamber()
}

// AttemptEject drops the seated magazine out of the well.
func (p *Pistol) AttemptEject() bool {
	_, ok := p.well.AttemptEject()
	return ok
}

// AttemptRelease starts releasing the seated magazine.
func (p *Pistol) AttemptRelease() bool {
	return p.well.AttemptRelease()
}

// OnCandidateDetected forwards a sensor enter to the well.
func (p *Pistol) OnCandidateDetected(c host.Candidate) bool {
	return p.well.OnCandidateDetected(c)
}

// OnCandidateExit forwards a sensor exit to the well.
func (p *Pistol) OnCandidateExit(c host.Candidate) {
	p.well.OnCandidateExit(c)
}

// OnAnimationComplete routes the well's animation cues back to it.
func (p *Pistol) OnAnimationComplete(cue string) {
	switch cue {
	case well.CueLoadMagazine:
		p.well.OnInsertAnimationComplete()
	case well.CueReleaseMagazine:
		p.well.OnReleaseAnimationComplete()
	}
}

// OnAnimationEvent handles mid-clip animation events.
func (p *Pistol) OnAnimationEvent(name string) {
	if name == EventEjectCasing {
		p.chamber.EmitSpentCasing()
	}
}

// Tick advances the slide.
func (p *Pistol) Tick(dt time.Duration) {
	p.slide.Tick(dt)
}

var (
	_ host.Grabbable         = (*Pistol)(nil)
	_ host.Triggerable       = (*Pistol)(nil)
	_ host.SensorListener    = (*Pistol)(nil)
	_ host.AnimationListener = (*Pistol)(nil)
)
