// Package types defines the shared data structures for the kingdomcore engine.
// This package contains only type definitions and constants, no logic.
package types

// Degree is the degree of success produced by a check against a difficulty.
type Degree string

const (
	CriticalSuccess Degree = "criticalSuccess"
	Success         Degree = "success"
	Failure         Degree = "failure"
	CriticalFailure Degree = "criticalFailure"
)

// Degrees lists every degree of success, best first.
var Degrees = []Degree{CriticalSuccess, Success, Failure, CriticalFailure}

// ModifierType selects how a modifier's magnitude is produced.
type ModifierType string

const (
	ModifierStatic        ModifierType = "static"
	ModifierDice          ModifierType = "dice"
	ModifierChoice        ModifierType = "choice"
	ModifierChoiceButtons ModifierType = "choice-buttons"
)

// Modifier is a resource delta attached to an outcome or an ongoing effect.
type Modifier struct {
	Type      ModifierType `json:"type" yaml:"type"`
	Resource  string       `json:"resource,omitempty" yaml:"resource,omitempty"`
	Resources []string     `json:"resources,omitempty" yaml:"resources,omitempty"` // choice candidates
	Value     int          `json:"value,omitempty" yaml:"value,omitempty"`
	Formula   string       `json:"formula,omitempty" yaml:"formula,omitempty"`
	Negative  bool         `json:"negative,omitempty" yaml:"negative,omitempty"`
	Duration  int          `json:"duration,omitempty" yaml:"duration,omitempty"` // 0 = immediate, N = ongoing for N turns
}

// Badge is a short display line describing an effect.
type Badge struct {
	Icon    string `json:"icon,omitempty"`
	Text    string `json:"text"`
	Variant string `json:"variant,omitempty"` // "positive", "negative", "neutral"
}

// CommandRequest is a declarative request for one staged command.
type CommandRequest struct {
	Type   string
	Params map[string]any
}

// EffectPlan is an ordered list of command requests.
type EffectPlan []CommandRequest

// PlanKey addresses an effect plan by approach and degree of success.
// An empty Approach addresses the approach-independent plan.
type PlanKey struct {
	Approach string
	Degree   Degree
}

// SkillOption is a skill usable for a pipeline's check.
type SkillOption struct {
	Skill       string
	Description string
}

// Option is one mutually exclusive approach of a strategic choice.
type Option struct {
	ID                  string
	Label               string
	Description         string
	Icon                string
	Skills              []string
	Personality         map[string]int
	OutcomeDescriptions map[Degree]string
	OutcomeBadges       map[Degree][]Badge
}

// StrategicChoice is the approach selection attached to a pipeline.
type StrategicChoice struct {
	Label    string
	Required bool
	Options  []Option
}

// OutcomeDef describes what one degree of success does.
type OutcomeDef struct {
	Description string
	EndsEvent   bool
	Modifiers   []Modifier
	Commands    []CommandRequest // approach-independent game commands
	Badges      []Badge          // pre-roll "possible outcomes" preview only
}

// InteractionDef is a post-apply interaction required before a resolution
// can finish. Expressions are CEL; a literal Count/Title is used when the
// corresponding expression is empty.
type InteractionDef struct {
	ID         string
	Type       string // "map-selection"
	Count      int
	CountExpr  string
	Title      string
	TitleExpr  string
	Condition  string
	Validator  string
	Params     map[string]any
	Settle     string // command type run once per accepted candidate
	SettleWith map[string]any
}

// Pipeline is the immutable content definition of an event or action.
type Pipeline struct {
	ID           string
	Name         string
	Category     string // "event", "incident", "action"
	Tier         int
	Description  string
	Skills       []SkillOption
	Choice       *StrategicChoice
	Outcomes     map[Degree]OutcomeDef
	Plans        map[PlanKey]EffectPlan
	Interactions []InteractionDef
	Traits       []string
}

// GameDef holds campaign metadata from content.
type GameDef struct {
	Title   string
	Author  string
	Version string
	Intro   string
}

// Structure is a building inside a settlement.
type Structure struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Tier    int    `json:"tier" yaml:"tier"`
	Damaged bool   `json:"damaged,omitempty" yaml:"damaged,omitempty"`
}

// Settlement is a kingdom settlement with prison capacity.
type Settlement struct {
	ID             string      `json:"id" yaml:"id"`
	Name           string      `json:"name" yaml:"name"`
	Level          int         `json:"level" yaml:"level"`
	PrisonCapacity int         `json:"prison_capacity" yaml:"prison_capacity"`
	Imprisoned     int         `json:"imprisoned" yaml:"imprisoned"`
	Structures     []Structure `json:"structures,omitempty" yaml:"structures,omitempty"`
}

// Attitude is a faction's disposition toward the kingdom.
type Attitude string

const (
	Hostile     Attitude = "hostile"
	Unfriendly  Attitude = "unfriendly"
	Indifferent Attitude = "indifferent"
	Friendly    Attitude = "friendly"
	Helpful     Attitude = "helpful"
)

// AttitudeScale orders attitudes from worst to best.
var AttitudeScale = []Attitude{Hostile, Unfriendly, Indifferent, Friendly, Helpful}

// Faction is an external group with an attitude toward the kingdom.
type Faction struct {
	ID       string   `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Attitude Attitude `json:"attitude" yaml:"attitude"`
}

// Army is a kingdom army; Conditions maps condition name to remaining turns.
type Army struct {
	ID         string         `json:"id" yaml:"id"`
	Name       string         `json:"name" yaml:"name"`
	Conditions map[string]int `json:"conditions,omitempty" yaml:"conditions,omitempty"`
}

// Player is a participant whose turn action can be spent.
type Player struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	ActionSpent bool   `json:"action_spent,omitempty" yaml:"action_spent,omitempty"`
}

// Hex is a map hex.
type Hex struct {
	ID        string   `json:"id" yaml:"id"`
	Terrain   string   `json:"terrain" yaml:"terrain"`
	Claimed   bool     `json:"claimed,omitempty" yaml:"claimed,omitempty"`
	Worksite  string   `json:"worksite,omitempty" yaml:"worksite,omitempty"`
	Neighbors []string `json:"neighbors,omitempty" yaml:"neighbors,omitempty"`
}

// ModifierSource attributes an ongoing modifier to what created it.
type ModifierSource struct {
	Type string `json:"type" yaml:"type"` // "pipeline", "structure", ...
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// ActiveModifier is a scheduled ongoing effect.
type ActiveModifier struct {
	ID          string         `json:"id" yaml:"id"`
	Source      ModifierSource `json:"source" yaml:"source"`
	Modifiers   []Modifier     `json:"modifiers" yaml:"modifiers"`
	Remaining   int            `json:"remaining" yaml:"remaining"`
	CreatedTurn int            `json:"created_turn" yaml:"created_turn"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
}

// Kingdom is the complete mutable kingdom state.
type Kingdom struct {
	Name        string           `json:"name" yaml:"name"`
	Turn        int              `json:"turn" yaml:"turn"`
	Resources   map[string]int   `json:"resources" yaml:"resources"`
	Settlements []Settlement     `json:"settlements" yaml:"settlements"`
	Factions    []Faction        `json:"factions" yaml:"factions"`
	Armies      []Army           `json:"armies" yaml:"armies"`
	Players     []Player         `json:"players" yaml:"players"`
	Hexes       []Hex            `json:"hexes" yaml:"hexes"`
	Ongoing     []ActiveModifier `json:"ongoing" yaml:"ongoing"`
}

// Intent is the parsed representation of a shell command.
type Intent struct {
	Verb string
	Args []string
}

// Event is emitted by the engine for trace output.
type Event struct {
	Type string
	Data map[string]any
}

// Result is the output of a single shell step.
type Result struct {
	Badges   []Badge
	Warnings []string
	Events   []Event
	Output   []string
}
