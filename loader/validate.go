package loader

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/nathoo/warriorcore/engine/state"
	"github.com/nathoo/warriorcore/types"
)

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

func (e *ValidationError) errorf(format string, args ...any) {
	e.Errors = append(e.Errors, fmt.Sprintf(format, args...))
}

func (e *ValidationError) warnf(format string, args ...any) {
	e.Warnings = append(e.Warnings, fmt.Sprintf(format, args...))
}

var validCheckKinds = map[types.DialogCheckKind]bool{
	types.CheckHasGold:             true,
	types.CheckHasItem:             true,
	types.CheckLacksItem:           true,
	types.CheckCanReceiveItem:      true,
	types.CheckIsItemEquipped:      true,
	types.CheckIsOutside:           true,
	types.CheckIsInside:            true,
	types.CheckIsInCombat:          true,
	types.CheckIsNotInCombat:       true,
	types.CheckIsAtCoordinates:     true,
	types.CheckIsDefined:           true,
	types.CheckIsNotDefined:        true,
	types.CheckHasProgressMarker:   true,
	types.CheckLacksProgressMarker: true,
}

var validActionKinds = map[types.DialogActionKind]bool{
	types.ActionDamageTarget:               true,
	types.ActionHealTarget:                 true,
	types.ActionRestoreMP:                  true,
	types.ActionSleep:                      true,
	types.ActionStopSpell:                  true,
	types.ActionGainItem:                   true,
	types.ActionLoseItem:                   true,
	types.ActionGainGold:                   true,
	types.ActionLoseGold:                   true,
	types.ActionSetLevel:                   true,
	types.ActionSetLightDiameter:           true,
	types.ActionRepelMonsters:              true,
	types.ActionGotoCoordinates:            true,
	types.ActionGotoLastOutsideCoordinates: true,
	types.ActionStartEncounter:             true,
	types.ActionPlaySound:                  true,
	types.ActionPlayMusic:                  true,
	types.ActionStopMusic:                  true,
	types.ActionWait:                       true,
	types.ActionSaveGame:                   true,
	types.ActionJoinParty:                  true,
	types.ActionLeaveParty:                 true,
	types.ActionAddProgressMarker:          true,
	types.ActionRemoveProgressMarker:       true,
}

var validCategories = map[types.ActionCategory]bool{
	"":                     true,
	types.CategoryPhysical: true,
	types.CategoryMagical:  true,
}

var validTargetTypes = map[types.TargetType]bool{
	types.TargetDefault:     true,
	types.TargetSelf:        true,
	types.TargetSingleAlly:  true,
	types.TargetAllAllies:   true,
	types.TargetSingleEnemy: true,
	types.TargetAllEnemies:  true,
}

// validate checks the compiled defs for referential integrity and consistency.
func validate(defs *state.Defs) error {
	ve := &ValidationError{}

	if defs.Game.Title == "" {
		ve.errorf("Game.title is required")
	}
	if defs.Game.StartMap == "" {
		ve.errorf("Game.start.map is required")
	} else if _, ok := defs.Maps[defs.Game.StartMap]; !ok {
		ve.errorf("start map %q not found in defined maps", defs.Game.StartMap)
	}
	if defs.Game.Hero.Name == "" {
		ve.errorf("Game.hero.name is required")
	}
	validateHeroDef("Game.hero", defs.Game.Hero, defs, ve)
	if w := defs.Game.DefaultWeapon; w != "" && defs.Weapons[w] == nil {
		ve.errorf("default weapon %q is not a defined weapon", w)
	}

	// Level table.
	if len(defs.Levels) == 0 {
		ve.errorf("at least one Level is required")
	}
	levels := map[int]bool{}
	for _, li := range defs.Levels {
		if levels[li.Level] {
			ve.errorf("duplicate level %d", li.Level)
		}
		levels[li.Level] = true
		if li.Spell != "" && defs.Spells[li.Spell] == nil {
			ve.errorf("level %d teaches undefined spell %q", li.Level, li.Spell)
		}
	}

	for name, h := range defs.Heroes {
		validateHeroDef("hero "+name, h, defs, ve)
	}

	// Monsters and their action rules.
	for name, m := range defs.Monsters {
		if m.MaxHP <= 0 {
			ve.errorf("monster %q needs positive hp", name)
		}
		for _, rule := range m.ActionRules {
			if rule.Action != defaultAttack && defs.MonsterActions[rule.Action] == nil {
				ve.errorf("monster %q uses undefined action %q", name, rule.Action)
			}
		}
	}

	for _, sm := range defs.SpecialMonsters {
		if defs.Monsters[sm.Monster] == nil {
			ve.errorf("special monster %q is an undefined monster %q", sm.Name, sm.Monster)
		}
		if _, ok := defs.Maps[sm.MapName]; !ok {
			ve.errorf("special monster %q stands on undefined map %q", sm.Name, sm.MapName)
		}
		validateDialog("special monster "+sm.Name, sm.ApproachDialog, nil, defs, ve)
		validateDialog("special monster "+sm.Name, sm.VictoryDialog, nil, defs, ve)
		validateDialog("special monster "+sm.Name, sm.RunAwayDialog, nil, defs, ve)
	}

	// Random encounter tables.
	for name, m := range defs.Maps {
		for _, entry := range m.Encounters {
			if defs.Monsters[entry.Monster] == nil {
				ve.errorf("map %q encounters undefined monster %q", name, entry.Monster)
			}
			if entry.Weight <= 0 {
				ve.errorf("map %q encounter %q needs a positive weight", name, entry.Monster)
			}
		}
	}

	// Every dialog in the game.
	for name, w := range defs.Weapons {
		validateDialog("weapon "+name, w.UseDialog, nil, defs, ve)
	}
	for name, t := range defs.Tools {
		validateDialog("tool "+name, t.UseDialog, nil, defs, ve)
		if t.UsableInCombat && len(t.UseDialog) == 0 {
			ve.warnf("tool %q is usable in combat but has no use dialog", name)
		}
	}
	for name, s := range defs.Spells {
		validateDialog("spell "+name, s.UseDialog, nil, defs, ve)
	}
	for name, a := range defs.MonsterActions {
		validateDialog("monster action "+name, a.Dialog, nil, defs, ve)
	}
	for name, doc := range defs.Dialogs {
		validateDialog("dialog "+name, doc.Entry, doc.Labels, defs, ve)
		for label, seq := range doc.Labels {
			validateDialog("dialog "+name+" label "+label, seq, doc.Labels, defs, ve)
		}
	}

	for _, w := range ve.Warnings {
		slog.Warn("content", "warning", w)
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateHeroDef(where string, h types.HeroDef, defs *state.Defs, ve *ValidationError) {
	if h.Weapon != "" && defs.Weapons[h.Weapon] == nil {
		ve.errorf("%s wields undefined weapon %q", where, h.Weapon)
	}
	if h.Armor != "" && defs.Armors[h.Armor] == nil {
		ve.errorf("%s wears undefined armor %q", where, h.Armor)
	}
	if h.Shield != "" && defs.Shields[h.Shield] == nil {
		ve.errorf("%s carries undefined shield %q", where, h.Shield)
	}
	for _, item := range h.Items {
		if !defs.IsItem(item) {
			ve.errorf("%s carries undefined item %q", where, item)
		}
	}
}

// validateDialog walks a sequence and everything nested in it. labels is
// nil for dialogs that cannot GoTo.
func validateDialog(where string, d types.DialogType, labels map[string]types.DialogType, defs *state.Defs, ve *ValidationError) {
	for _, el := range d {
		switch el.Kind {
		case types.ElementBranch:
			if len(el.Options) == 0 {
				ve.errorf("%s: branch without options", where)
			}
			for _, opt := range el.Options {
				validateDialog(where, opt.Dialog, labels, defs, ve)
			}
		case types.ElementGoTo:
			if _, ok := labels[el.Label]; !ok {
				ve.errorf("%s: GoTo undefined label %q", where, el.Label)
			}
		case types.ElementVendorBuy, types.ElementVendorSell:
			for _, item := range el.Vendor.Items {
				if !defs.IsItem(item) {
					ve.errorf("%s: vendor offers undefined item %q", where, item)
				}
			}
		case types.ElementCheck:
			validateCheck(where, el.Check, defs, ve)
			validateDialog(where, el.Check.FailedDialog, labels, defs, ve)
		case types.ElementAction:
			validateAction(where, el.Action, defs, ve)
			validateDialog(where, el.Action.FadeDialog, labels, defs, ve)
		}
	}
}

func validateCheck(where string, c *types.DialogCheck, defs *state.Defs, ve *ValidationError) {
	if !validCheckKinds[c.Kind] {
		ve.errorf("%s: unknown check %q", where, c.Kind)
		return
	}
	switch c.Kind {
	case types.CheckHasItem, types.CheckLacksItem, types.CheckIsItemEquipped:
		if !isVariable(c.Name) && !defs.IsItem(c.Name) {
			ve.errorf("%s: check %s references undefined item %q", where, c.Kind, c.Name)
		}
	case types.CheckIsAtCoordinates:
		if _, ok := defs.Maps[c.MapName]; !ok {
			ve.errorf("%s: check %s references undefined map %q", where, c.Kind, c.MapName)
		}
	}
}

func validateAction(where string, a *types.DialogAction, defs *state.Defs, ve *ValidationError) {
	if !validActionKinds[a.Kind] {
		ve.errorf("%s: unknown action %q", where, a.Kind)
		return
	}
	if !validCategories[a.Category] {
		ve.errorf("%s: action %s has unknown category %q", where, a.Kind, a.Category)
	}
	if !validTargetTypes[a.TargetType] {
		ve.errorf("%s: action %s has unknown target %q", where, a.Kind, a.TargetType)
	}

	switch a.Kind {
	case types.ActionGainItem, types.ActionLoseItem:
		if !isVariable(a.Name) && !defs.IsItem(a.Name) {
			ve.errorf("%s: action %s references undefined item %q", where, a.Kind, a.Name)
		}
	case types.ActionGotoCoordinates:
		if a.MapName != "" {
			if _, ok := defs.Maps[a.MapName]; !ok {
				ve.errorf("%s: action %s references undefined map %q", where, a.Kind, a.MapName)
			}
		}
		if a.MapPos == nil {
			ve.errorf("%s: action %s needs x and y", where, a.Kind)
		}
	case types.ActionStartEncounter:
		if !isVariable(a.Name) && defs.Monsters[a.Name] == nil && !isSpecialMonster(defs, a.Name) {
			ve.errorf("%s: action %s references undefined monster %q", where, a.Kind, a.Name)
		}
	case types.ActionJoinParty:
		if _, ok := defs.Heroes[a.Name]; !ok && !isVariable(a.Name) {
			ve.errorf("%s: action %s references undefined hero %q", where, a.Kind, a.Name)
		}
	case types.ActionDamageTarget:
		if a.Problem != nil && a.Problem.Answer == "" {
			ve.errorf("%s: action %s problem needs an answer", where, a.Kind)
		}
	}
}

func isSpecialMonster(defs *state.Defs, name string) bool {
	for _, sm := range defs.SpecialMonsters {
		if sm.Name == name {
			return true
		}
	}
	return false
}

// isVariable reports whether s holds a [VARIABLE] reference resolved at run time.
func isVariable(s string) bool {
	return strings.Contains(s, "[") && strings.Contains(s, "]")
}
