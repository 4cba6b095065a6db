package display

import (
	"strings"

	"github.com/RyanBlaney/sonido-vowels/vowel"
)

// mouths holds one drawing per vowel plus a neutral face for None. All
// drawings share the same height so switching vowels never leaves stale
// rows behind.
var mouths = map[vowel.Label][]string{
	vowel.None: {
		`    .-------------.    `,
		`   /               \   `,
		`  |                 |  `,
		`  |    ---------    |  `,
		`  |                 |  `,
		`   \               /   `,
		`    '-------------'    `,
	},
	vowel.A: {
		`    .-------------.    `,
		`   /  ___________  \   `,
		`  |  /           \  |  `,
		`  | |             | |  `,
		`  |  \___________/  |  `,
		`   \               /   `,
		`    '-------------'    `,
	},
	vowel.E: {
		`    .-------------.    `,
		`   /               \   `,
		`  |  _____________  |  `,
		`  | (_____________) |  `,
		`  |                 |  `,
		`   \               /   `,
		`    '-------------'    `,
	},
	vowel.I: {
		`    .-------------.    `,
		`   /               \   `,
		`  | _______________ |  `,
		`  |(_______________)|  `,
		`  |                 |  `,
		`   \               /   `,
		`    '-------------'    `,
	},
	vowel.O: {
		`    .-------------.    `,
		`   /     _____     \   `,
		`  |     /     \     |  `,
		`  |    |       |    |  `,
		`  |     \_____/     |  `,
		`   \               /   `,
		`    '-------------'    `,
	},
	vowel.U: {
		`    .-------------.    `,
		`   /               \   `,
		`  |       ___       |  `,
		`  |      (   )      |  `,
		`  |       '-'       |  `,
		`   \               /   `,
		`    '-------------'    `,
	},
}

var examples = map[vowel.Label]string{
	vowel.None: "listening...",
	vowel.A:    `as in "father"`,
	vowel.E:    `as in "bed"`,
	vowel.I:    `as in "see"`,
	vowel.O:    `as in "go"`,
	vowel.U:    `as in "food"`,
}

// Mouth returns the drawing for label. Unknown labels get the neutral face.
func Mouth(label vowel.Label) []string {
	if m, ok := mouths[label]; ok {
		return m
	}
	return mouths[vowel.None]
}

// Caption returns the text shown under the mouth.
func Caption(label vowel.Label) string {
	if label == vowel.None {
		return "Vowel: -  " + examples[vowel.None]
	}
	if !label.Valid() {
		return "Vowel: ?"
	}
	return "Vowel: " + strings.ToUpper(label.String()) + "  " + examples[label]
}
