package prop_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/sidearm/internal/game/host"
	"github.com/cory-johannsen/sidearm/internal/game/prop"
)

const minimalPistol = `id: test_pistol
name: Test Pistol
magazine: test_mag
magazine_eject_direction: {x: 0, y: -1, z: 0}
slide_axis:
  forward: {x: 0, y: 0, z: 1}
`

const minimalMagazine = `id: test_mag
name: Test Magazine
prefab: test_mag_prefab
capacity: 10
rounds: 7
`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestMagazineDef_Validate_RejectsEmpty(t *testing.T) {
	m := &prop.MagazineDef{}
	assert.Error(t, m.Validate())
}

func TestMagazineDef_Validate_RejectsRoundsAboveCapacity(t *testing.T) {
	m := &prop.MagazineDef{ID: "m", Name: "M", Prefab: "p", Capacity: 10, Rounds: 11}
	assert.Error(t, m.Validate())
}

func TestMagazineDef_NewMagazine(t *testing.T) {
	def := &prop.MagazineDef{ID: "m", Name: "M", Prefab: "p", Capacity: 10, Rounds: 4}
	m, err := def.NewMagazine(zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 4, m.HeldRounds())
	assert.Equal(t, 10, m.Capacity())
	assert.True(t, m.Loadable())
}

func TestPistolDef_Validate_RequiresEjectDirection(t *testing.T) {
	p := &prop.PistolDef{
		ID:        "p",
		Name:      "P",
		Magazine:  "m",
		SlideAxis: host.IdentityFrame(),
	}
	assert.Error(t, p.Validate())
	p.MagazineEjectDirection = host.Point{Y: -1}
	assert.NoError(t, p.Validate())
}

func TestLoadRegistry_LoadsAndCrossChecks(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "magazines"), "test_mag.yaml", minimalMagazine)
	writeFile(t, filepath.Join(root, "pistols"), "test_pistol.yaml", minimalPistol)
	writeFile(t, filepath.Join(root, "pistols"), "README.md", "ignored")

	reg, err := prop.LoadRegistry(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"test_pistol"}, reg.PistolIDs())

	p := reg.Pistol("test_pistol")
	require.NotNil(t, p)
	assets := p.Assets(reg.Magazine(p.Magazine))
	assert.Equal(t, "test_mag_prefab", assets.Well.MagazinePrefab)
	assert.Equal(t, host.Vec3{0, -1, 0}, assets.Well.EjectionDirection)
	assert.Nil(t, assets.Chamber.EjectionPoint)
}

func TestLoadRegistry_UnknownMagazine(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "magazines"), "other.yaml", `id: other
name: Other
prefab: x
capacity: 5
rounds: 5
`)
	writeFile(t, filepath.Join(root, "pistols"), "test_pistol.yaml", minimalPistol)

	_, err := prop.LoadRegistry(root)
	assert.ErrorContains(t, err, "unknown magazine")
}

func TestRegistry_DuplicateIDs(t *testing.T) {
	reg := prop.NewRegistry()
	m := &prop.MagazineDef{ID: "m"}
	require.NoError(t, reg.RegisterMagazine(m))
	assert.Error(t, reg.RegisterMagazine(m))
}

// TestContent_AllPropsLoad verifies the shipped prop library loads and every
// pistol resolves its magazine.
func TestContent_AllPropsLoad(t *testing.T) {
	reg, err := prop.LoadRegistry("../../../content/props")
	require.NoError(t, err, "content/props should load without error")
	require.NotEmpty(t, reg.PistolIDs())
	for _, id := range reg.PistolIDs() {
		p := reg.Pistol(id)
		assert.NotNil(t, reg.Magazine(p.Magazine), "pistol %q magazine", id)
	}
}

func TestContent_VectorsDecodeFromMappings(t *testing.T) {
	reg, err := prop.LoadRegistry("../../../content/props")
	require.NoError(t, err)
	p := reg.Pistol("p226")
	require.NotNil(t, p)

	assert.Equal(t, host.Vec3{0, -0.08, -0.02}, p.Anchors.MagazineWell.Position)
	assert.Equal(t, host.Vec3{0, 0, 1}, p.SlideAxis.Forward)
	require.NotNil(t, p.Anchors.CartridgeEjection)

	assets := p.Assets(reg.Magazine(p.Magazine))
	assert.Equal(t, host.Vec3{90, 0, 0}, assets.Chamber.RotationOffset)
	assert.Equal(t, host.Vec3{0, -1, 0}, assets.Well.EjectionDirection)
}

// TestProperty_MagazineDef_ValidIffRoundsInRange asserts Validate accepts
// exactly the round counts in [0, capacity].
func TestProperty_MagazineDef_ValidIffRoundsInRange(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		capacity := rapid.IntRange(1, 50).Draw(rt, "capacity")
		n := rapid.IntRange(-10, 60).Draw(rt, "rounds")
		m := &prop.MagazineDef{ID: "m", Name: "M", Prefab: "p", Capacity: capacity, Rounds: n}
		valid := m.Validate() == nil
		if valid != (n >= 0 && n <= capacity) {
			rt.Fatalf("Validate()==nil is %v for rounds=%d capacity=%d", valid, n, capacity)
		}
	})
}
