package detector

// Level is the operator's alertness classification, ordered by severity.
type Level int

const (
	Awake Level = iota
	Normal
	Extreme
)

func (l Level) String() string {
	switch l {
	case Normal:
		return "NORMAL"
	case Extreme:
		return "EXTREME"
	default:
		return "AWAKE"
	}
}
