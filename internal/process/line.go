package process

// Origin tells which output channel of a child produced a line.
type Origin int

const (
	Stdout Origin = iota
	Stderr
)

func (o Origin) String() string {
	switch o {
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	default:
		return "unknown"
	}
}

// Line is one line of child output, with trailing whitespace removed,
// tagged with the channel it came from.
type Line struct {
	Origin Origin
	Text   string
}
