// Package parser converts command strings into Intent structs.
// Intentionally dumb: no NLP, just pattern matching.
package parser

import (
	"strings"

	"github.com/nathoo/warriorcore/types"
)

var directionExpansions = map[string]string{
	"n": "north",
	"s": "south",
	"e": "east",
	"w": "west",
}

// Full direction names that are standalone shortcuts for "walk <dir>".
var directionNames = map[string]bool{
	"north": true, "south": true, "east": true, "west": true,
}

var verbAliases = map[string]string{
	// Look / Status
	"l":     "look",
	"where": "look",
	"stats": "status",
	"st":    "status",

	// Movement
	"go":     "walk",
	"move":   "walk",
	"step":   "walk",
	"travel": "walk",

	// Talk
	"ask":   "talk",
	"speak": "talk",
	"chat":  "talk",

	// Combat
	"attack": "fight",
	"battle": "fight",
	"hunt":   "fight",

	// Magic
	"spell": "cast",
	"chant": "cast",

	// Items
	"inv":   "inventory",
	"i":     "inventory",
	"items": "inventory",
	"apply": "use",
	"wield": "equip",
	"wear":  "equip",
	"don":   "equip",

	// Session
	"exit": "quit",
	"q":    "quit",
	"h":    "help",
	"?":    "help",
}

var prepositions = map[string]bool{
	"on": true, "at": true, "to": true,
	"with": true, "in": true, "from": true,
}

var articles = map[string]bool{
	"the": true, "a": true, "an": true,
}

// Parse converts a raw command string into an Intent.
func Parse(input string) types.Intent {
	input = strings.TrimSpace(input)
	if input == "" {
		return types.Intent{}
	}

	words := strings.Fields(strings.ToLower(input))

	// Direction shortcut: bare "n", "south", etc. → walk <direction>
	if len(words) == 1 {
		if dir, ok := directionExpansions[words[0]]; ok {
			return types.Intent{Verb: "walk", Object: dir}
		}
		if directionNames[words[0]] {
			return types.Intent{Verb: "walk", Object: words[0]}
		}
	}

	words = expandMultiWordVerbs(words)

	if alias, ok := verbAliases[words[0]]; ok {
		words[0] = alias
	}

	verb := words[0]
	rest := stripArticles(words[1:])

	// "walk n" expands the abbreviated direction.
	if verb == "walk" && len(rest) == 1 {
		if dir, ok := directionExpansions[rest[0]]; ok {
			rest[0] = dir
		}
	}

	object, target := splitOnPreposition(rest)
	return types.Intent{
		Verb:   verb,
		Object: object,
		Target: target,
	}
}

// expandMultiWordVerbs handles "talk to", "look around", "put on" etc.
func expandMultiWordVerbs(words []string) []string {
	if len(words) < 2 {
		return words
	}

	switch words[0] {
	case "look":
		if words[1] == "around" {
			return append([]string{"look"}, words[2:]...)
		}
	case "talk", "speak", "chat":
		if words[1] == "to" || words[1] == "with" {
			return append([]string{"talk"}, words[2:]...)
		}
	case "put":
		if words[1] == "on" {
			return append([]string{"equip"}, words[2:]...)
		}
	case "fight", "attack":
		if words[1] == "with" || words[1] == "against" {
			return append([]string{"fight"}, words[2:]...)
		}
	}

	return words
}

// stripArticles removes articles ("the", "a", "an") from the word list.
func stripArticles(words []string) []string {
	result := make([]string, 0, len(words))
	for _, w := range words {
		if !articles[w] {
			result = append(result, w)
		}
	}
	return result
}

// splitOnPreposition splits words on the first preposition.
// Words before the preposition become the object, words after become the target.
// If no preposition is found, all words become the object.
func splitOnPreposition(words []string) (object, target string) {
	for i, w := range words {
		if prepositions[w] {
			object = strings.Join(words[:i], " ")
			target = strings.Join(words[i+1:], " ")
			return object, target
		}
	}
	return strings.Join(words, " "), ""
}
