package fixture

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MinSignificantMultiplier is the lowest integrity multiplier for which
// damage can trigger a transition. Profiles at or below it never degrade.
const MinSignificantMultiplier = 0.15

// Item traits recognised by the interaction adapter.
const (
	TraitLightTube       = "light_tube"
	TraitLightReplacer   = "light_replacer"
	TraitBroken          = "broken"
	TraitInsulatedGloves = "insulated_gloves"
)

// Profile is the static configuration of one state.
type Profile struct {
	// Tint is the visual tint identifier shown by presentation layers.
	Tint string `yaml:"tint" json:"tint"`

	// RequiredTrait is the consumable trait an inserted item must carry.
	RequiredTrait string `yaml:"required_trait" json:"required_trait"`

	// Module is the item sitting in the mount in this state, if any.
	Module string `yaml:"module" json:"module,omitempty"`

	// LootID is the item dropped when the fixture is despawned in this state.
	LootID string `yaml:"loot_id" json:"loot_id"`

	// IntegrityMultiplier scales base integrity into the degrade threshold.
	IntegrityMultiplier float64 `yaml:"integrity_multiplier" json:"integrity_multiplier"`
}

// Catalog maps every state to its profile. It is built once and only read.
type Catalog struct {
	profiles map[State]Profile
}

// DefaultCatalog returns the built-in profile catalog.
func DefaultCatalog() *Catalog {
	return &Catalog{profiles: map[State]Profile{
		StateUninitialized: {},
		StateModuleAbsent: {
			Tint:          "mount_empty",
			RequiredTrait: TraitLightTube,
			LootID:        "light_mount_frame",
		},
		StateOn: {
			Tint:                "white",
			RequiredTrait:       TraitLightTube,
			Module:              "light_tube",
			LootID:              "light_mount_frame",
			IntegrityMultiplier: 0.6,
		},
		StateOff: {
			Tint:                "dark",
			RequiredTrait:       TraitLightTube,
			Module:              "light_tube",
			LootID:              "light_mount_frame",
			IntegrityMultiplier: 0.1,
		},
		StateEmergency: {
			Tint:                "red",
			RequiredTrait:       TraitLightTube,
			Module:              "light_tube",
			LootID:              "light_mount_frame",
			IntegrityMultiplier: 0.6,
		},
		StateDegraded: {
			Tint:                "flicker",
			RequiredTrait:       TraitLightTube,
			Module:              "light_tube_broken",
			LootID:              "light_mount_frame",
			IntegrityMultiplier: 0.3,
		},
		StateDisabled: {
			Tint:                "burnt",
			RequiredTrait:       TraitLightTube,
			Module:              "light_tube_burnt",
			LootID:              "light_mount_frame",
			IntegrityMultiplier: 0.1,
		},
	}}
}

// Profile returns the profile for a state. Unknown states get the zero profile.
func (c *Catalog) Profile(s State) Profile {
	return c.profiles[s]
}

// Threshold computes the integrity degrade threshold for a state.
// ok is false when the state's multiplier is not significant.
func (c *Catalog) Threshold(s State, baseIntegrity float64) (threshold float64, ok bool) {
	m := c.profiles[s].IntegrityMultiplier
	if m <= MinSignificantMultiplier {
		return 0, false
	}
	return baseIntegrity * m, true
}

// catalogFile is the on-disk layout of a profile override file.
type catalogFile struct {
	Profiles map[string]Profile `yaml:"profiles"`
}

// LoadCatalog reads profile overrides from a YAML file and merges them over
// the built-in catalog. Keys are state names:
//
//	profiles:
//	  degraded:
//	    tint: orange
//	    integrity_multiplier: 0.25
//
// An override replaces the whole profile for that state.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from trusted config
	if err != nil {
		return nil, fmt.Errorf("reading profiles file %s: %w", path, err)
	}
	return ParseCatalog(data)
}

// ParseCatalog parses YAML profile overrides. See LoadCatalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: parsing yaml: %w", ErrInvalidProfile, err)
	}

	cat := DefaultCatalog()
	for name, p := range file.Profiles {
		s, err := ParseState(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidProfile, err)
		}
		if s == StateUninitialized {
			return nil, fmt.Errorf("%w: uninitialized has no profile", ErrInvalidProfile)
		}
		if p.IntegrityMultiplier < 0 || p.IntegrityMultiplier > 1 {
			return nil, fmt.Errorf("%w: %s integrity_multiplier %.2f outside [0,1]",
				ErrInvalidProfile, s, p.IntegrityMultiplier)
		}
		cat.profiles[s] = p
	}
	return cat, nil
}
