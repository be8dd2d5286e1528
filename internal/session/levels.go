package session

import "fmt"

// Level is a pairwise preference judgment. The numeric mapping is a wire
// contract shared with every downstream consumer of derived scores; it must
// never be renumbered.
type Level int

const (
	LevelLeftStrong  Level = 2
	LevelLeftSlight  Level = 1
	LevelTie         Level = 0
	LevelRightSlight Level = -1
	LevelRightStrong Level = -2
)

// MaxScore is the preference score carried by derived labels expanded from a
// battle decision: the winning side's clips are maximally preferred.
const MaxScore = int(LevelLeftStrong)

// Valid reports whether l is one of the five defined levels.
func (l Level) Valid() bool {
	return l >= LevelRightStrong && l <= LevelLeftStrong
}

// Score returns the derived numeric score for the level.
func (l Level) Score() int {
	return int(l)
}

func (l Level) String() string {
	switch l {
	case LevelLeftStrong:
		return "left strongly preferred"
	case LevelLeftSlight:
		return "left slightly preferred"
	case LevelTie:
		return "tie"
	case LevelRightSlight:
		return "right slightly preferred"
	case LevelRightStrong:
		return "right strongly preferred"
	}
	return fmt.Sprintf("level(%d)", int(l))
}
