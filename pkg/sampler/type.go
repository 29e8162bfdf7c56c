package sampler

import (
	"fmt"
	"strings"
)

// Type identifies a frame sampler algorithm. The values are written to dump
// files and must never be renumbered.
type Type byte

const (
	Uniform  Type = 1 // equal sample weight for every pixel
	Adaptive Type = 2 // variance guided sample allocation (reserved)
)

func (t Type) String() string {
	switch t {
	case Uniform:
		return "uniform"
	case Adaptive:
		return "adaptive"
	default:
		return fmt.Sprintf("Type(%d)", byte(t))
	}
}

// ParseType returns the sampler type stored under the given wire tag
func ParseType(tag byte) (Type, error) {
	switch Type(tag) {
	case Uniform, Adaptive:
		return Type(tag), nil
	default:
		return 0, fmt.Errorf("%w: tag %d", ErrUnknownType, tag)
	}
}

// ParseTypeName looks up a sampler type by its name, ignoring case
func ParseTypeName(name string) (Type, error) {
	switch strings.ToLower(name) {
	case "uniform":
		return Uniform, nil
	case "adaptive":
		return Adaptive, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownType, name)
	}
}
