// Package save implements JSON serialization and deserialization of the
// kingdom state and the RNG stream position.
package save

import (
	"encoding/json"
	"errors"

	"github.com/nathoo/kingdomcore/engine/dice"
	"github.com/nathoo/kingdomcore/engine/state"
	"github.com/nathoo/kingdomcore/types"
)

// ErrNoKingdom indicates a save file without kingdom state.
var ErrNoKingdom = errors.New("save has no kingdom")

// SaveData is the JSON-serializable save format. In-flight resolutions are
// not saved; the journal tracks any that were left incomplete.
type SaveData struct {
	Version     string         `json:"version"`
	Game        string         `json:"game"`
	Kingdom     *types.Kingdom `json:"kingdom"`
	RNGSeed     int64          `json:"rng_seed"`
	RNGPosition int64          `json:"rng_position"`
	CommandLog  []string       `json:"command_log"`
}

// Save serializes kingdom state to JSON bytes.
func Save(k *types.Kingdom, defs *state.Defs, rng *dice.RNG, log []string) ([]byte, error) {
	data := SaveData{
		Version:     defs.Game.Version,
		Game:        defs.Game.Title,
		Kingdom:     k,
		RNGSeed:     rng.Seed(),
		RNGPosition: rng.Position(),
		CommandLog:  log,
	}
	return json.MarshalIndent(data, "", "  ")
}

// Load deserializes JSON bytes into SaveData.
func Load(data []byte) (*SaveData, error) {
	var sd SaveData
	if err := json.Unmarshal(data, &sd); err != nil {
		return nil, err
	}
	if sd.Kingdom == nil {
		return nil, ErrNoKingdom
	}
	// Ensure collections are never nil after load.
	state.Normalize(sd.Kingdom)
	if sd.CommandLog == nil {
		sd.CommandLog = []string{}
	}
	return &sd, nil
}

// ApplySave swaps the store's kingdom for the saved one and returns the RNG
// advanced to the saved position.
func ApplySave(s *state.Store, sd *SaveData) *dice.RNG {
	s.Replace(sd.Kingdom)
	return dice.RestoreRNG(sd.RNGSeed, sd.RNGPosition)
}
