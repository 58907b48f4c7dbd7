package dialog

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nathoo/warriorcore/engine/combat"
)

// varPattern matches a [NAME] substitution.
var varPattern = regexp.MustCompile(`\[([A-Za-z0-9_]+)\]`)

// SetVariable binds name for the rest of the current top-level run.
func (e *Evaluator) SetVariable(name, value string) {
	if e.vars == nil {
		e.vars = map[string]string{}
	}
	e.vars[name] = value
}

// Variable returns the value bound to name, falling back to the built-in
// ACTOR, TARGET, TARGETS, HERO, GOLD and SPELL bindings.
func (e *Evaluator) Variable(name string) (string, bool) {
	if v, ok := e.vars[name]; ok {
		return v, true
	}

	switch name {
	case "ACTOR":
		if a := e.actor(); a != nil {
			return a.Name(), true
		}
	case "TARGET":
		if len(e.Targets) > 0 {
			return e.Targets[0].Name(), true
		}
	case "TARGETS":
		if len(e.Targets) > 0 {
			return combat.ConcatenateStringList(characterNames(e.Targets)), true
		}
	case "HERO":
		if h := e.hero(); h != nil {
			return h.Name(), true
		}
	case "GOLD":
		if e.Session != nil && e.Session.Party != nil {
			return strconv.Itoa(e.Session.Party.Gold), true
		}
	case "SPELL":
		if e.Spell != "" {
			return e.Spell, true
		}
	}
	return "", false
}

// substitute replaces every bound [NAME] in text. Unbound names are kept.
func (e *Evaluator) substitute(text string) string {
	return varPattern.ReplaceAllStringFunc(text, func(m string) string {
		if v, ok := e.Variable(m[1 : len(m)-1]); ok {
			return v
		}
		return m
	})
}

// format substitutes variables and capitalizes the first letter, so
// "[ACTOR] attacks!" reads "The Slime attacks!".
func (e *Evaluator) format(text string) string {
	text = e.substitute(text)
	r, size := utf8.DecodeRuneInString(text)
	if r == utf8.RuneError || unicode.IsUpper(r) {
		return text
	}
	return string(unicode.ToUpper(r)) + text[size:]
}

// evalValue substitutes a variable value and rolls it when it is a range.
func (e *Evaluator) evalValue(value string) string {
	value = e.substitute(value)
	if lo, hi, ok := parseRange(value); ok {
		return strconv.Itoa(e.RNG.RandInt(lo, hi))
	}
	return value
}

// resolveCount evaluates a count: a literal, a "lo-hi" range or a [NAME]
// reference to either. An empty count yields def.
func (e *Evaluator) resolveCount(count string, def int) (int, bool) {
	count = strings.TrimSpace(e.substitute(count))
	if count == "" {
		return def, true
	}
	if n, err := strconv.Atoi(count); err == nil {
		return n, true
	}
	if lo, hi, ok := parseRange(count); ok {
		return e.RNG.RandInt(lo, hi), true
	}
	e.Logger.Error("invalid count", "count", count)
	return 0, false
}

// countRange returns the bounds of a count without rolling it.
func (e *Evaluator) countRange(count string) (int, int, bool) {
	count = strings.TrimSpace(e.substitute(count))
	if n, err := strconv.Atoi(count); err == nil {
		return n, n, true
	}
	if lo, hi, ok := parseRange(count); ok {
		return lo, hi, true
	}
	e.Logger.Error("invalid count", "count", count)
	return 0, 0, false
}

// parseRange parses "lo-hi" with non-negative bounds.
func parseRange(s string) (int, int, bool) {
	loStr, hiStr, found := strings.Cut(s, "-")
	if !found {
		return 0, 0, false
	}
	lo, err := strconv.Atoi(strings.TrimSpace(loStr))
	if err != nil {
		return 0, 0, false
	}
	hi, err := strconv.Atoi(strings.TrimSpace(hiStr))
	if err != nil {
		return 0, 0, false
	}
	return lo, hi, true
}

func characterNames(cs []combat.Character) []string {
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = c.Name()
	}
	return names
}
