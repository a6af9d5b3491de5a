package querysql

import "fmt"

// Mode selects how constant placeholders render.
type Mode int

const (
	// ModeParameterize renders every placeholder as a bound parameter and
	// records the parameter → placeholder mapping. Results are reusable.
	ModeParameterize Mode = iota

	// ModeEvaluate substitutes each placeholder's constant as if it were an
	// inline Constant. Results are never reusable.
	ModeEvaluate

	// ModeTokens writes $$<index> for each placeholder. The text does not
	// depend on constant values, so results are reusable with an empty
	// parameter mapping.
	ModeTokens
)

func (m Mode) String() string {
	switch m {
	case ModeParameterize:
		return "parameterize"
	case ModeEvaluate:
		return "evaluate"
	case ModeTokens:
		return "tokens"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode returns the Mode named by s.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "parameterize":
		return ModeParameterize, nil
	case "evaluate":
		return ModeEvaluate, nil
	case "tokens":
		return ModeTokens, nil
	default:
		return 0, fmt.Errorf("unknown mode %q (want parameterize, evaluate or tokens)", s)
	}
}

// Options configures a Formatter.
type Options struct {
	Mode Mode

	// IndentWidth is the number of spaces per nesting level. Zero means 2.
	IndentWidth int
}
