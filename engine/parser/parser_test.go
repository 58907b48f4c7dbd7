package parser

import (
	"testing"

	"github.com/nathoo/warriorcore/types"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  types.Intent
	}{
		// Empty / whitespace
		{
			name:  "empty string",
			input: "",
			want:  types.Intent{},
		},
		{
			name:  "whitespace only",
			input: "   ",
			want:  types.Intent{},
		},

		// Basic verbs (no object)
		{
			name:  "look",
			input: "look",
			want:  types.Intent{Verb: "look"},
		},
		{
			name:  "look around",
			input: "look around",
			want:  types.Intent{Verb: "look"},
		},
		{
			name:  "status alias",
			input: "stats",
			want:  types.Intent{Verb: "status"},
		},
		{
			name:  "i → inventory",
			input: "i",
			want:  types.Intent{Verb: "inventory"},
		},

		// Movement
		{
			name:  "bare direction",
			input: "n",
			want:  types.Intent{Verb: "walk", Object: "north"},
		},
		{
			name:  "full direction",
			input: "West",
			want:  types.Intent{Verb: "walk", Object: "west"},
		},
		{
			name:  "go alias with short direction",
			input: "go s",
			want:  types.Intent{Verb: "walk", Object: "south"},
		},

		// Talk
		{
			name:  "talk to strips preposition",
			input: "talk to the king",
			want:  types.Intent{Verb: "talk", Object: "king"},
		},
		{
			name:  "speak with alias",
			input: "speak with innkeeper",
			want:  types.Intent{Verb: "talk", Object: "innkeeper"},
		},

		// Combat and magic
		{
			name:  "attack alias",
			input: "attack slime",
			want:  types.Intent{Verb: "fight", Object: "slime"},
		},
		{
			name:  "fight several",
			input: "fight slime drakee",
			want:  types.Intent{Verb: "fight", Object: "slime drakee"},
		},
		{
			name:  "cast on target",
			input: "cast heal on erdrick",
			want:  types.Intent{Verb: "cast", Object: "heal", Target: "erdrick"},
		},

		// Items
		{
			name:  "use item",
			input: "use an herb",
			want:  types.Intent{Verb: "use", Object: "herb"},
		},
		{
			name:  "put on → equip",
			input: "put on leather armor",
			want:  types.Intent{Verb: "equip", Object: "leather armor"},
		},
		{
			name:  "wield alias",
			input: "wield copper sword",
			want:  types.Intent{Verb: "equip", Object: "copper sword"},
		},

		// Session
		{
			name:  "save slot",
			input: "save slot1",
			want:  types.Intent{Verb: "save", Object: "slot1"},
		},
		{
			name:  "q → quit",
			input: "q",
			want:  types.Intent{Verb: "quit"},
		},

		// Unknown verbs pass through
		{
			name:  "unknown verb",
			input: "dance wildly",
			want:  types.Intent{Verb: "dance", Object: "wildly"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input)
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}
