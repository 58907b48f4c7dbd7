// Package types defines the shared data structures for the warriorcore engine.
// This package contains only type definitions and constants: no logic, no methods.
package types

// Intent is the parsed representation of a player command.
type Intent struct {
	Verb   string
	Object string // optional
	Target string // optional
}

// Point is a tile coordinate on a map.
type Point struct {
	X int
	Y int
}

// DialogElementKind tags the variant held by a DialogElement.
type DialogElementKind string

const (
	ElementString     DialogElementKind = "string"
	ElementBranch     DialogElementKind = "branch"
	ElementVariable   DialogElementKind = "variable"
	ElementGoTo       DialogElementKind = "goto"
	ElementVendorBuy  DialogElementKind = "vendor_buy"
	ElementVendorSell DialogElementKind = "vendor_sell"
	ElementCheck      DialogElementKind = "check"
	ElementAction     DialogElementKind = "action"
)

// DialogElement is one step of a dialog script. Exactly one of the payload
// fields is meaningful, selected by Kind.
type DialogElement struct {
	Kind     DialogElementKind
	Text     string               // ElementString
	Options  []DialogOption       // ElementBranch
	Variable *DialogVariable      // ElementVariable
	Label    string               // ElementGoTo
	Vendor   *DialogVendorOptions // ElementVendorBuy, ElementVendorSell
	Check    *DialogCheck         // ElementCheck
	Action   *DialogAction        // ElementAction
}

// DialogType is the ordered script for one interaction.
type DialogType []DialogElement

// DialogOption is one labelled choice of a branch menu.
type DialogOption struct {
	Label  string
	Dialog DialogType
}

// DialogDocument is a top-level dialog: the entry sequence plus the named
// sequences GoTo elements may jump to.
type DialogDocument struct {
	Name   string
	Entry  DialogType
	Labels map[string]DialogType
}

// DialogVariable binds Name to Value (which may be a range like "5-10").
type DialogVariable struct {
	Name  string
	Value string
}

// DialogVendorOptions lists the items offered by a vendor menu. When
// Variable is set, the item list is read from that variable as a
// comma separated list instead.
type DialogVendorOptions struct {
	Items    []string
	Variable string
}

// DialogCheckKind names a condition evaluated by a check element.
type DialogCheckKind string

const (
	CheckHasGold             DialogCheckKind = "HAS_GOLD"
	CheckHasItem             DialogCheckKind = "HAS_ITEM"
	CheckLacksItem           DialogCheckKind = "LACKS_ITEM"
	CheckCanReceiveItem      DialogCheckKind = "CAN_RECEIVE_ITEM"
	CheckIsItemEquipped      DialogCheckKind = "IS_ITEM_EQUIPPED"
	CheckIsOutside           DialogCheckKind = "IS_OUTSIDE"
	CheckIsInside            DialogCheckKind = "IS_INSIDE"
	CheckIsInCombat          DialogCheckKind = "IS_IN_COMBAT"
	CheckIsNotInCombat       DialogCheckKind = "IS_NOT_IN_COMBAT"
	CheckIsAtCoordinates     DialogCheckKind = "IS_AT_COORDINATES"
	CheckIsDefined           DialogCheckKind = "IS_DEFINED"
	CheckIsNotDefined        DialogCheckKind = "IS_NOT_DEFINED"
	CheckHasProgressMarker   DialogCheckKind = "HAS_PROGRESS_MARKER"
	CheckLacksProgressMarker DialogCheckKind = "LACKS_PROGRESS_MARKER"
)

// DialogCheck is a conditional step. When the condition fails and IsAssert
// is set, the rest of the current sequence is skipped; FailedDialog, if
// present, runs on failure.
type DialogCheck struct {
	Kind         DialogCheckKind
	FailedDialog DialogType
	Name         string
	Count        string
	MapName      string
	MapPos       *Point
	IsAssert     bool
}

// DialogActionKind names a side-effecting operation.
type DialogActionKind string

const (
	ActionDamageTarget               DialogActionKind = "DAMAGE_TARGET"
	ActionHealTarget                 DialogActionKind = "HEAL_TARGET"
	ActionRestoreMP                  DialogActionKind = "RESTORE_MP"
	ActionSleep                      DialogActionKind = "SLEEP"
	ActionStopSpell                  DialogActionKind = "STOPSPELL"
	ActionGainItem                   DialogActionKind = "GAIN_ITEM"
	ActionLoseItem                   DialogActionKind = "LOSE_ITEM"
	ActionGainGold                   DialogActionKind = "GAIN_GOLD"
	ActionLoseGold                   DialogActionKind = "LOSE_GOLD"
	ActionSetLevel                   DialogActionKind = "SET_LEVEL"
	ActionSetLightDiameter           DialogActionKind = "SET_LIGHT_DIAMETER"
	ActionRepelMonsters              DialogActionKind = "REPEL_MONSTERS"
	ActionGotoCoordinates            DialogActionKind = "GOTO_COORDINATES"
	ActionGotoLastOutsideCoordinates DialogActionKind = "GOTO_LAST_OUTSIDE_COORDINATES"
	ActionStartEncounter             DialogActionKind = "START_ENCOUNTER"
	ActionPlaySound                  DialogActionKind = "PLAY_SOUND"
	ActionPlayMusic                  DialogActionKind = "PLAY_MUSIC"
	ActionStopMusic                  DialogActionKind = "STOP_MUSIC"
	ActionWait                       DialogActionKind = "WAIT"
	ActionSaveGame                   DialogActionKind = "SAVE_GAME"
	ActionJoinParty                  DialogActionKind = "JOIN_PARTY"
	ActionLeaveParty                 DialogActionKind = "LEAVE_PARTY"
	ActionAddProgressMarker          DialogActionKind = "ADD_PROGRESS_MARKER"
	ActionRemoveProgressMarker       DialogActionKind = "REMOVE_PROGRESS_MARKER"
)

// ActionCategory distinguishes physical from magical actions.
type ActionCategory string

const (
	CategoryPhysical ActionCategory = "PHYSICAL"
	CategoryMagical  ActionCategory = "MAGICAL"
)

// TargetType selects the targets of an action relative to its actor.
// The zero value keeps the targets already set on the dialog context.
type TargetType string

const (
	TargetDefault     TargetType = ""
	TargetSelf        TargetType = "SELF"
	TargetSingleAlly  TargetType = "SINGLE_ALLY"
	TargetAllAllies   TargetType = "ALL_ALLIES"
	TargetSingleEnemy TargetType = "SINGLE_ENEMY"
	TargetAllEnemies  TargetType = "ALL_ENEMIES"
)

// CountDefault makes DAMAGE_TARGET use the actor's intrinsic attack damage.
const CountDefault = "default"

// Problem is an arithmetic challenge attached to a DAMAGE_TARGET action.
type Problem struct {
	Prompt            string
	Answer            string
	AllowedCharacters string
}

// DialogAction is a side-effecting step.
type DialogAction struct {
	Kind           DialogActionKind
	Name           string
	Count          string
	Bypass         bool
	BypassTypeName string
	DecaySteps     int
	FadeDialog     DialogType
	MapName        string
	MapPos         *Point
	Category       ActionCategory
	TargetType     TargetType
	Problem        *Problem
}

// MonsterActionRule is a monster's conditional policy for choosing a turn action.
type MonsterActionRule struct {
	Action               string
	Probability          float64
	HealthRatioThreshold float64
}

// MonsterInfo is the immutable template a MonsterState is created from.
type MonsterInfo struct {
	Name               string
	Strength           int
	Agility            int
	MinHP              int
	MaxHP              int
	MinGP              int
	MaxGP              int
	XP                 int
	Dodge              int // chance out of 64
	BlockFactor        float64
	Resistances        map[string]float64 // keyed by action kind or spell name
	ActionRules        []MonsterActionRule
	MayRunAway         bool
	AllowsCriticalHits bool
}

// SpecialMonster overrides a monster for a scripted, fixed-position encounter.
type SpecialMonster struct {
	Name           string
	Monster        string
	MapName        string
	MapPos         Point
	ApproachDialog DialogType
	VictoryDialog  DialogType
	RunAwayDialog  DialogType
}

// MonsterAction is a named dialog a monster action rule refers to.
type MonsterAction struct {
	Name   string
	Dialog DialogType
}

// Weapon is an equippable weapon.
type Weapon struct {
	Name      string
	Attack    int
	GP        int
	UseDialog DialogType
}

// Armor is equippable body armor.
type Armor struct {
	Name            string
	Defense         int
	GP              int
	Resistances     map[string]float64
	DamageModifiers map[ActionCategory]float64
}

// Shield is an equippable shield.
type Shield struct {
	Name    string
	Defense int
	GP      int
}

// Tool is an inventory item that may be used.
type Tool struct {
	Name           string
	GP             int
	UseDialog      DialogType
	UsableInCombat bool
	Consumable     bool
}

// Spell is a castable spell.
type Spell struct {
	Name              string
	MP                int
	AvailableInCombat bool
	AvailableOutside  bool
	UseDialog         DialogType
}

// LevelInfo holds hero attributes at a level.
type LevelInfo struct {
	Level    int
	XP       int
	Strength int
	Agility  int
	HP       int
	MP       int
	Spell    string // spell learned on reaching this level
}

// HeroDef describes a hero that can join the party.
type HeroDef struct {
	Name   string
	Level  int
	Weapon string
	Armor  string
	Shield string
	Items  []string
}

// EncounterEntry is one weighted row of a map's random encounter table.
type EncounterEntry struct {
	Monster string
	Weight  int
}

// MapDef describes the parts of a map the core consults.
type MapDef struct {
	Name       string
	Outside    bool
	Music      string
	Width      int // zero means unbounded
	Height     int
	Encounters []EncounterEntry
}

// GameDef holds game metadata.
type GameDef struct {
	Title         string
	Author        string
	Version       string
	Intro         string
	StartMap      string
	StartPos      Point
	DefaultWeapon string
	CombatMusic   string
	VictoryMusic  string
	MaxItems      int
	Gold          int
	Hero          HeroDef
}
