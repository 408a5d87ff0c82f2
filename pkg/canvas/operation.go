package canvas

import (
	"fmt"
	"strings"
)

// Operation selects how the input is fitted into a new aspect ratio
type Operation int

const (
	// Crop trims the input along one axis
	Crop Operation = iota + 1
	// Expand pads the input along one axis
	Expand
)

// Valid reports whether o is a known operation
func (o Operation) Valid() bool {
	return o == Crop || o == Expand
}

func (o Operation) String() string {
	switch o {
	case Crop:
		return "crop"
	case Expand:
		return "expand"
	}
	return fmt.Sprintf("operation(%d)", int(o))
}

// ParseOperation parses "crop" or "expand"
func ParseOperation(s string) (Operation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "crop":
		return Crop, nil
	case "expand":
		return Expand, nil
	}
	return 0, fmt.Errorf("unknown operation %q (use crop or expand)", s)
}
