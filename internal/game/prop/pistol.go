package prop

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/sidearm/internal/game/chamber"
	"github.com/cory-johannsen/sidearm/internal/game/host"
	"github.com/cory-johannsen/sidearm/internal/game/pistol"
	"github.com/cory-johannsen/sidearm/internal/game/slide"
	"github.com/cory-johannsen/sidearm/internal/game/well"
)

// Clips names the audio clips a pistol plays.
type Clips struct {
	Gunshot         string `yaml:"gunshot"`
	EmptyClick      string `yaml:"empty_click"`
	SlidePull       string `yaml:"slide_pull"`
	SlideRelease    string `yaml:"slide_release"`
	MagazineInsert  string `yaml:"magazine_insert"`
	MagazineRelease string `yaml:"magazine_release"`
}

// Anchors are the pistol's named transforms.
type Anchors struct {
	// MagazineWell is the center of the well's proximity sensor.
	MagazineWell     host.Anchor `yaml:"magazine_well"`
	MagazineRelease  host.Anchor `yaml:"magazine_release"`
	MagazineEjection host.Anchor `yaml:"magazine_ejection"`
	// CartridgeEjection is optional; without it racking a live round only
	// clears the chamber.
	CartridgeEjection *host.Anchor `yaml:"cartridge_ejection"`
}

// PistolDef defines a pistol prop loaded from YAML.
type PistolDef struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Magazine string `yaml:"magazine"` // accepted MagazineDef ID
	Script   string `yaml:"script"`   // optional Lua hook file, relative to the script dir

	Clips       Clips  `yaml:"clips"`
	MuzzleFlash string `yaml:"muzzle_flash"`
	SpentCasing string `yaml:"spent_casing"`

	MagazineModel string        `yaml:"magazine_model"`
	GripCollider  host.EntityID `yaml:"grip_collider"`

	CartridgePrefab         string         `yaml:"cartridge_prefab"`
	CartridgeRotationOffset host.Point     `yaml:"cartridge_rotation_offset"`
	MagazineEjectDirection  host.Point     `yaml:"magazine_eject_direction"`
	Anchors                 Anchors        `yaml:"anchors"`
	SlideAxis               host.AxisFrame `yaml:"slide_axis"`
}

// Validate checks that the PistolDef satisfies its invariants.
// Precondition: p is non-nil.
// Postcondition: returns nil iff all fields are valid.
func (p *PistolDef) Validate() error {
	var errs []error
	if p.ID == "" {
		errs = append(errs, errors.New("ID must not be empty"))
	}
	if p.Name == "" {
		errs = append(errs, errors.New("Name must not be empty"))
	}
	if p.Magazine == "" {
		errs = append(errs, errors.New("Magazine must not be empty"))
	}
	if p.MagazineEjectDirection.Vec3().Len() == 0 {
		errs = append(errs, errors.New("MagazineEjectDirection must be non-zero"))
	}
	if p.SlideAxis.Forward.Len() == 0 {
		errs = append(errs, errors.New("SlideAxis.Forward must be non-zero"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("pistol validation failed: %w", errors.Join(errs...))
	}
	return nil
}

// Assets converts the definition into component assets. mag supplies the
// prefab the well spawns on release and ejection.
//
// Precondition: mag is the MagazineDef named by p.Magazine.
func (p *PistolDef) Assets(mag *MagazineDef) pistol.Assets {
	return pistol.Assets{
		Name: p.ID,
		Well: well.Assets{
			MagazinePrefab:    mag.Prefab,
			MagazineModel:     p.MagazineModel,
			GripCollider:      p.GripCollider,
			ReleasePoint:      p.Anchors.MagazineRelease,
			EjectionPoint:     p.Anchors.MagazineEjection,
			EjectionDirection: p.MagazineEjectDirection.Vec3(),
			InsertClip:        p.Clips.MagazineInsert,
			ReleaseClip:       p.Clips.MagazineRelease,
		},
		Chamber: chamber.Assets{
			CartridgePrefab: p.CartridgePrefab,
			EjectionPoint:   p.Anchors.CartridgeEjection,
			RotationOffset:  p.CartridgeRotationOffset.Vec3(),
			GunshotClip:     p.Clips.Gunshot,
			EmptyClickClip:  p.Clips.EmptyClick,
			MuzzleFlash:     p.MuzzleFlash,
			SpentCasing:     p.SpentCasing,
		},
		Slide: slide.Assets{
			PullClip:    p.Clips.SlidePull,
			ReleaseClip: p.Clips.SlideRelease,
		},
		SlideAxis: p.SlideAxis,
	}
}

// LoadPistols reads all *.yaml files from dir, parses each as a PistolDef,
// validates it, and returns the collected slice.
// Precondition: dir is a readable directory path.
// Postcondition: returns all valid PistolDefs or the first encountered error.
func LoadPistols(dir string) ([]*PistolDef, error) {
	var defs []*PistolDef
	err := eachYAML(dir, func(path string, data []byte) error {
		var p PistolDef
		if err := yaml.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("cannot parse file %q: %w", path, err)
		}
		if err := p.Validate(); err != nil {
			return fmt.Errorf("invalid pistol in %q: %w", path, err)
		}
		defs = append(defs, &p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("LoadPistols: %w", err)
	}
	return defs, nil
}
