package dialog

import (
	"github.com/nathoo/warriorcore/types"
)

// EvalCheck evaluates a single check against the current session.
func (e *Evaluator) EvalCheck(c *types.DialogCheck) bool {
	switch c.Kind {
	case types.CheckHasGold:
		n, ok := e.resolveCount(c.Count, 0)
		return ok && e.Session.Party.Gold >= n

	case types.CheckHasItem:
		return e.hasItem(c)

	case types.CheckLacksItem:
		return !e.hasItem(c)

	case types.CheckCanReceiveItem:
		h := e.hero()
		return h != nil && h.CanReceiveItem()

	case types.CheckIsItemEquipped:
		h := e.hero()
		return h != nil && h.IsEquipped(e.substitute(c.Name))

	case types.CheckIsOutside:
		return e.Session.IsOutside(e.Defs)

	case types.CheckIsInside:
		return !e.Session.IsOutside(e.Defs)

	case types.CheckIsInCombat:
		return e.Session.InCombat

	case types.CheckIsNotInCombat:
		return !e.Session.InCombat

	case types.CheckIsAtCoordinates:
		if c.MapName != "" && c.MapName != e.Session.MapName {
			return false
		}
		return c.MapPos == nil || *c.MapPos == e.Session.Position

	case types.CheckIsDefined:
		_, ok := e.Variable(c.Name)
		return ok

	case types.CheckIsNotDefined:
		_, ok := e.Variable(c.Name)
		return !ok

	case types.CheckHasProgressMarker:
		return e.Session.HasMarker(e.substitute(c.Name))

	case types.CheckLacksProgressMarker:
		return !e.Session.HasMarker(e.substitute(c.Name))

	default:
		e.Logger.Error("unknown check", "kind", c.Kind)
		return false
	}
}

// hasItem counts the named item across the whole party.
func (e *Evaluator) hasItem(c *types.DialogCheck) bool {
	want, ok := e.resolveCount(c.Count, 1)
	if !ok {
		return false
	}
	name := e.substitute(c.Name)
	have := 0
	for _, h := range e.Session.Party.Heroes {
		have += h.ItemCount(name)
	}
	return have >= want
}
