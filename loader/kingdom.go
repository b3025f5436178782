package loader

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nathoo/kingdomcore/engine/state"
	"github.com/nathoo/kingdomcore/types"
)

// LoadKingdom reads a YAML kingdom fixture and checks its references.
func LoadKingdom(path string) (*types.Kingdom, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading kingdom file %s: %w", path, err)
	}
	return ParseKingdom(data)
}

// ParseKingdom decodes a YAML kingdom.
func ParseKingdom(data []byte) (*types.Kingdom, error) {
	var k types.Kingdom
	if err := yaml.Unmarshal(data, &k); err != nil {
		return nil, fmt.Errorf("parsing kingdom: %w", err)
	}
	state.Normalize(&k)
	if err := validateKingdom(&k); err != nil {
		return nil, err
	}
	return &k, nil
}

func validateKingdom(k *types.Kingdom) error {
	ve := &ValidationError{}
	if k.Name == "" {
		ve.errorf("kingdom name is required")
	}
	for name, v := range k.Resources {
		if v < 0 {
			ve.errorf("resource %q is negative (%d)", name, v)
		}
	}

	unique := func(kind string, ids []string) {
		seen := map[string]bool{}
		for _, id := range ids {
			if id == "" {
				ve.errorf("%s without an id", kind)
				continue
			}
			if seen[id] {
				ve.errorf("duplicate %s %q", kind, id)
			}
			seen[id] = true
		}
	}

	var ids []string
	for _, s := range k.Settlements {
		ids = append(ids, s.ID)
		if s.Imprisoned > s.PrisonCapacity {
			ve.warnf("settlement %q holds %d prisoners over a capacity of %d", s.ID, s.Imprisoned, s.PrisonCapacity)
		}
	}
	unique("settlement", ids)

	ids = nil
	for _, f := range k.Factions {
		ids = append(ids, f.ID)
		if state.AttitudeIndex(f.Attitude) < 0 {
			ve.errorf("faction %q has unknown attitude %q", f.ID, f.Attitude)
		}
	}
	unique("faction", ids)

	ids = nil
	for _, a := range k.Armies {
		ids = append(ids, a.ID)
	}
	unique("army", ids)

	ids = nil
	for _, p := range k.Players {
		ids = append(ids, p.ID)
	}
	unique("player", ids)

	ids = nil
	hexes := map[string]bool{}
	for _, h := range k.Hexes {
		ids = append(ids, h.ID)
		hexes[h.ID] = true
	}
	unique("hex", ids)
	for _, h := range k.Hexes {
		for _, n := range h.Neighbors {
			if !hexes[n] {
				ve.errorf("hex %q lists undefined neighbour %q", h.ID, n)
			}
		}
		if h.Worksite != "" && !h.Claimed {
			ve.warnf("hex %q has a worksite but is not claimed", h.ID)
		}
	}

	for _, w := range ve.Warnings {
		slog.Warn("kingdom warning", "detail", w)
	}
	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}
