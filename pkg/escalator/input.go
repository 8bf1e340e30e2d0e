package escalator

import (
	"errors"
	"fmt"
	"strings"
)

// InputKind distinguishes the three selection forms.
type InputKind uint8

// Input kinds.
const (
	InputAll InputKind = iota + 1
	InputPair
	InputDirect
)

// Input is a user's selection of escalators: every escalator, both directions
// between two floors, or a single directed escalator.
type Input struct {
	Kind InputKind
	A, B uint8
}

// All selects every registered escalator.
func All() Input { return Input{Kind: InputAll} }

// Pair selects the escalators a→b and b→a.
func Pair(a, b uint8) Input { return Input{Kind: InputPair, A: a, B: b} }

// Direct selects the single escalator a→b.
func Direct(a, b uint8) Input { return Input{Kind: InputDirect, A: a, B: b} }

// ErrUnknownFormat is returned when the text matches none of the accepted
// forms ("all", "#-#", "#/#").
var ErrUnknownFormat = errors.New("unknown escalator format")

// InvalidFloorError reports a floor character outside 1-9.
type InvalidFloorError struct {
	Char rune
}

func (e *InvalidFloorError) Error() string {
	return fmt.Sprintf("invalid floor %q", e.Char)
}

// InvalidEscalatorError reports a well-formed selection naming an escalator
// that does not exist.
type InvalidEscalatorError struct {
	Floors Floors
}

func (e *InvalidEscalatorError) Error() string {
	return fmt.Sprintf("no escalator goes from floor %d to floor %d", e.Floors.Start, e.Floors.End)
}

// ParseInput parses a selection and checks it against the registry. Pair
// selections require both directions to exist.
func ParseInput(text string, reg *Registry) (Input, error) {
	in, err := parseSyntax(text)
	if err != nil {
		return Input{}, err
	}
	switch in.Kind {
	case InputDirect:
		f := Floors{Start: in.A, End: in.B}
		if !reg.Contains(f) {
			return Input{}, &InvalidEscalatorError{Floors: f}
		}
	case InputPair:
		for _, f := range []Floors{{Start: in.A, End: in.B}, {Start: in.B, End: in.A}} {
			if !reg.Contains(f) {
				return Input{}, &InvalidEscalatorError{Floors: f}
			}
		}
	}
	return in, nil
}

func parseSyntax(text string) (Input, error) {
	text = strings.TrimSpace(text)
	if strings.EqualFold(text, "all") {
		return All(), nil
	}
	runes := []rune(text)
	if len(runes) != 3 {
		return Input{}, ErrUnknownFormat
	}
	var kind InputKind
	switch runes[1] {
	case '-':
		kind = InputDirect
	case '/':
		kind = InputPair
	default:
		return Input{}, ErrUnknownFormat
	}
	a, err := parseFloor(runes[0])
	if err != nil {
		return Input{}, err
	}
	b, err := parseFloor(runes[2])
	if err != nil {
		return Input{}, err
	}
	return Input{Kind: kind, A: a, B: b}, nil
}

func parseFloor(ch rune) (uint8, error) {
	if ch < '1' || ch > '9' {
		return 0, &InvalidFloorError{Char: ch}
	}
	return uint8(ch - '0'), nil
}

// Targets expands the selection into escalators. It does not consult the
// registry for Pair and Direct, so a stale selection may name escalators the
// registry does not know.
func (in Input) Targets(reg *Registry) []Floors {
	switch in.Kind {
	case InputAll:
		return reg.All()
	case InputPair:
		return []Floors{{Start: in.A, End: in.B}, {Start: in.B, End: in.A}}
	case InputDirect:
		return []Floors{{Start: in.A, End: in.B}}
	default:
		return nil
	}
}

// IsSingular reports whether the selection names exactly one escalator.
func (in Input) IsSingular() bool {
	return in.Kind == InputDirect
}

func (in Input) ordered() (uint8, uint8) {
	return min(in.A, in.B), max(in.A, in.B)
}

// Noun returns the selection as the subject of a chat message.
func (in Input) Noun() string {
	switch in.Kind {
	case InputAll:
		return "`ALL` escalators"
	case InputPair:
		lo, hi := in.ordered()
		return fmt.Sprintf("the `%d-%d` and `%d-%d` escalators", lo, hi, hi, lo)
	case InputDirect:
		return fmt.Sprintf("the `%d-%d` escalator", in.A, in.B)
	default:
		return "`NO` escalators"
	}
}

// ShortNoun is Noun without formatting, for titles and logs.
func (in Input) ShortNoun() string {
	switch in.Kind {
	case InputAll:
		return "ALL escalators"
	case InputPair:
		lo, hi := in.ordered()
		return fmt.Sprintf("%d-%d and %d-%d", lo, hi, hi, lo)
	case InputDirect:
		return fmt.Sprintf("%d-%d", in.A, in.B)
	default:
		return "no escalators"
	}
}

// String renders the selection in the syntax ParseInput accepts.
func (in Input) String() string {
	switch in.Kind {
	case InputAll:
		return "all"
	case InputPair:
		return fmt.Sprintf("%d/%d", in.A, in.B)
	case InputDirect:
		return fmt.Sprintf("%d-%d", in.A, in.B)
	default:
		return ""
	}
}

// MarshalText implements encoding.TextMarshaler.
func (in Input) MarshalText() ([]byte, error) {
	if in.Kind == 0 {
		return nil, ErrUnknownFormat
	}
	return []byte(in.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Only the syntax is
// checked; callers validate against a registry.
func (in *Input) UnmarshalText(b []byte) error {
	parsed, err := parseSyntax(string(b))
	if err != nil {
		return err
	}
	*in = parsed
	return nil
}
