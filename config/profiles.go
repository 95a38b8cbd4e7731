// Package config loads connection profiles and signing secrets.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/smartcontractkit/chainlink-multichain-provider/chain"
)

// ErrInvalidProfileSet is returned when a decoded profiles file is not a set of named profiles.
var ErrInvalidProfileSet = errors.New("invalid profile set")

// Profiles is a set of connection profiles by name.
type Profiles struct {
	profiles map[string]chain.Profile
}

// NewProfiles creates a profile set from profiles.
func NewProfiles(profiles map[string]chain.Profile) *Profiles {
	return &Profiles{profiles: maps.Clone(profiles)}
}

// IsProfileSet reports whether v is a non-nil object whose every value is an Ethereum or a
// Tezos profile.
func IsProfileSet(v any) bool {
	m, ok := v.(map[string]any)
	if !ok || m == nil {
		return false
	}
	for _, p := range m {
		if !chain.IsEthereumProfile(p) && !chain.IsTezosProfile(p) {
			return false
		}
	}

	return true
}

// ParseProfiles converts a decoded profiles document into a profile set.
func ParseProfiles(v any) (*Profiles, error) {
	if !IsProfileSet(v) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidProfileSet, invalidProfiles(v))
	}

	m := v.(map[string]any)
	profiles := make(map[string]chain.Profile, len(m))
	for name, raw := range m {
		profiles[name], _ = chain.AsProfile(raw)
	}

	return &Profiles{profiles: profiles}, nil
}

// invalidProfiles describes why v is not a profile set.
func invalidProfiles(v any) string {
	m, ok := v.(map[string]any)
	if !ok || m == nil {
		return "expected an object of named profiles"
	}

	var bad []string
	for name, p := range m {
		if !chain.IsEthereumProfile(p) && !chain.IsTezosProfile(p) {
			bad = append(bad, name)
		}
	}
	slices.Sort(bad)

	return "unrecognized profiles " + strings.Join(bad, ", ")
}

// LoadProfiles reads a profile set from a JSON, YAML or TOML file, chosen by extension.
func LoadProfiles(path string) (*Profiles, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles file: %w", err)
	}

	var doc any
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &doc)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	case ".toml":
		var m map[string]any
		err = toml.Unmarshal(data, &m)
		doc = m
	default:
		return nil, fmt.Errorf("unsupported profiles file extension %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode profiles file %s: %w", path, err)
	}

	profiles, err := ParseProfiles(doc)
	if err != nil {
		return nil, fmt.Errorf("profiles file %s: %w", path, err)
	}

	return profiles, nil
}

// Len returns the number of profiles.
func (p *Profiles) Len() int {
	return len(p.profiles)
}

// Names returns the profile names in ascending order.
func (p *Profiles) Names() []string {
	return slices.Sorted(maps.Keys(p.profiles))
}

// All returns a copy of the profiles keyed by name.
func (p *Profiles) All() map[string]chain.Profile {
	return maps.Clone(p.profiles)
}

// Get returns the profile with the given name.
func (p *Profiles) Get(name string) (chain.Profile, error) {
	profile, ok := p.profiles[name]
	if !ok {
		return chain.Profile{}, fmt.Errorf("profile not found '%s'", name)
	}

	return profile, nil
}

// Describe returns a human readable description of a profile.
func (p *Profiles) Describe(name string) (string, error) {
	profile, err := p.Get(name)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("Name: %s\nBlockchain: %s\nNode URL: %s", name, profile.Blockchain, profile.URL), nil
}

// DescribeAll describes every profile, in name order.
func (p *Profiles) DescribeAll() (string, error) {
	if p.Len() == 0 {
		return "", errors.New("no profiles loaded")
	}

	names := p.Names()

	descriptions := make([]string, len(names))
	for i, name := range names {
		descriptions[i], _ = p.Describe(name)
	}

	plural := ""
	if len(names) > 1 {
		plural = "s"
	}

	return fmt.Sprintf("%d profile%s loaded.\n\n%s", len(names), plural, strings.Join(descriptions, "\n\n")), nil
}
