package engine

import "fmt"

// Direction is one of the four input directions
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

// AllDirections lists the directions in capability bit order
var AllDirections = []Direction{Up, Down, Left, Right}

// ParseDirection validates an input direction string
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case Up, Down, Left, Right:
		return d, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

// Delta returns the unit grid vector for the direction (up is y-1)
func (d Direction) Delta() Position {
	switch d {
	case Up:
		return Position{X: 0, Y: -1}
	case Down:
		return Position{X: 0, Y: 1}
	case Left:
		return Position{X: -1, Y: 0}
	case Right:
		return Position{X: 1, Y: 0}
	}
	return Position{}
}

// Opposite returns the reverse direction
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	case Right:
		return Left
	}
	return d
}

// Directions is the movement capability of an entity: which inputs it
// responds to, and whether other entities may push it.
type Directions struct {
	Pushable bool `json:"pushable" yaml:"pushable"`
	Up       bool `json:"up" yaml:"up"`
	Down     bool `json:"down" yaml:"down"`
	Left     bool `json:"left" yaml:"left"`
	Right    bool `json:"right" yaml:"right"`
}

// AllowsAll is a fully mobile, pushable capability
func AllowsAll() Directions {
	return Directions{Pushable: true, Up: true, Down: true, Left: true, Right: true}
}

// Allows reports whether the entity responds to input in d
func (c Directions) Allows(d Direction) bool {
	switch d {
	case Up:
		return c.Up
	case Down:
		return c.Down
	case Left:
		return c.Left
	case Right:
		return c.Right
	}
	return false
}

// Set enables or disables a single direction bit
func (c *Directions) Set(d Direction, v bool) {
	switch d {
	case Up:
		c.Up = v
	case Down:
		c.Down = v
	case Left:
		c.Left = v
	case Right:
		c.Right = v
	}
}

// ActiveCount counts enabled direction bits; Pushable is not a direction
func (c Directions) ActiveCount() int {
	n := 0
	for _, d := range AllDirections {
		if c.Allows(d) {
			n++
		}
	}
	return n
}

// Inverted flips all four direction bits
func (c Directions) Inverted() Directions {
	return Directions{Pushable: c.Pushable, Up: !c.Up, Down: !c.Down, Left: !c.Left, Right: !c.Right}
}

// Mirrored swaps up with down and left with right
func (c Directions) Mirrored() Directions {
	return Directions{Pushable: c.Pushable, Up: c.Down, Down: c.Up, Left: c.Right, Right: c.Left}
}
