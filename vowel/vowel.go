// Package vowel classifies formant pairs into one of five vowel categories
// using an ordered table of rectangular F1/F2 ranges.
package vowel

import (
	"fmt"
	"strings"
)

// Label identifies a vowel. The zero value is None.
type Label uint8

const (
	None Label = iota
	A
	E
	I
	O
	U
)

// Labels lists every vowel label except None, in canonical order.
var Labels = []Label{A, E, I, O, U}

func (l Label) String() string {
	switch l {
	case None:
		return "none"
	case A:
		return "a"
	case E:
		return "e"
	case I:
		return "i"
	case O:
		return "o"
	case U:
		return "u"
	default:
		return fmt.Sprintf("label(%d)", uint8(l))
	}
}

// Valid reports whether l is one of A, E, I, O, U.
func (l Label) Valid() bool {
	return l >= A && l <= U
}

// ParseLabel parses "a", "e", "i", "o", "u" or "none", case-insensitively.
func ParseLabel(s string) (Label, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "a":
		return A, nil
	case "e":
		return E, nil
	case "i":
		return I, nil
	case "o":
		return O, nil
	case "u":
		return U, nil
	case "none", "":
		return None, nil
	default:
		return None, fmt.Errorf("unknown vowel %q", s)
	}
}
