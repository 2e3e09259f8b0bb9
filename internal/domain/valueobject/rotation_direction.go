package valueobject

import (
	"errors"
	"strings"
)

// RotationDirection is a quarter turn: left is -90°, right is +90° (clockwise on screen).
type RotationDirection string

const (
	Left  RotationDirection = "left"
	Right RotationDirection = "right"
)

var ErrInvalidDirection = errors.New("invalid rotation direction")

func ParseRotationDirection(raw string) (RotationDirection, error) {
	d := RotationDirection(strings.ToLower(strings.TrimSpace(raw)))
	if err := d.Validate(); err != nil {
		return "", err
	}
	return d, nil
}

func (d RotationDirection) Validate() error {
	switch d {
	case Left, Right:
		return nil
	default:
		return ErrInvalidDirection
	}
}

// Degrees returns the signed rotation angle.
func (d RotationDirection) Degrees() int {
	if d == Left {
		return -90
	}
	return 90
}

func (d RotationDirection) String() string {
	return string(d)
}
