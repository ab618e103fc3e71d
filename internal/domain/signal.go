package domain

// Direction is the side of a binary option.
type Direction string

const (
	DirectionCall Direction = "CALL"
	DirectionPut  Direction = "PUT"
)

// Valid reports whether the direction is one of the two recognized sides.
// Anything else coming out of a strategy is treated as "no signal".
func (d Direction) Valid() bool {
	return d == DirectionCall || d == DirectionPut
}

// Signal is a directional trading signal produced by one strategy on one
// bar. Signals are ephemeral: they are arbitrated and discarded within the
// same engine step, never persisted.
type Signal struct {
	Strategy  string
	Direction Direction
}
