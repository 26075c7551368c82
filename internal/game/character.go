package game

import (
	"strings"

	"github.com/pixil98/go-quest/internal/storage"
)

// Character is the client's mirror of the player's progression record. The
// remote game service owns the authoritative copy.
type Character struct {
	HP       int
	MaxHP    int
	XP       int
	XPToNext int
	Level    int
	Area     storage.Identifier
	Position Position
}

// Position is a cell inside an area's layout.
type Position struct {
	X int
	Y int
}

// Direction is a unit step on the area grid.
type Direction struct {
	DX int
	DY int
}

var (
	Still = Direction{}
	North = Direction{DX: 0, DY: -1}
	South = Direction{DX: 0, DY: 1}
	East  = Direction{DX: 1, DY: 0}
	West  = Direction{DX: -1, DY: 0}
)

var directionNames = map[string]Direction{
	"n":     North,
	"north": North,
	"s":     South,
	"south": South,
	"e":     East,
	"east":  East,
	"w":     West,
	"west":  West,
}

// ParseDirection maps player input like "n" or "north" to a Direction.
func ParseDirection(s string) (Direction, bool) {
	d, ok := directionNames[strings.ToLower(strings.TrimSpace(s))]
	return d, ok
}

// IsStill reports whether the direction produces no displacement.
func (d Direction) IsStill() bool {
	return d == Still
}

// Step moves p one cell in direction d, staying inside a width x height
// grid. A zero width or height leaves that axis unbounded.
func (p Position) Step(d Direction, width, height int) Position {
	next := Position{X: p.X + d.DX, Y: p.Y + d.DY}
	next.X = clampAxis(next.X, width)
	next.Y = clampAxis(next.Y, height)
	return next
}

func clampAxis(v, size int) int {
	if size <= 0 {
		return v
	}
	if v < 0 {
		return 0
	}
	if v >= size {
		return size - 1
	}
	return v
}
