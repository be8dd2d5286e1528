package dataset

import "sort"

// Side is one dancer's set of clip variants within a battle.
type Side struct {
	Dancer string
	Units  []Unit
}

// Battle is one video holding exactly two sides. Sides are ordered by dancer
// key so a battle's shape does not depend on row order in the source file.
type Battle struct {
	Video string
	Left  Side
	Right Side
}

// SideFor returns the side whose dancer key matches, if any.
func (b Battle) SideFor(dancer string) (Side, bool) {
	switch dancer {
	case b.Left.Dancer:
		return b.Left, true
	case b.Right.Dancer:
		return b.Right, true
	}
	return Side{}, false
}

// Opponent returns the side opposing the given dancer key.
func (b Battle) Opponent(dancer string) (Side, bool) {
	switch dancer {
	case b.Left.Dancer:
		return b.Right, true
	case b.Right.Dancer:
		return b.Left, true
	}
	return Side{}, false
}

func (c *Collection) groupBattles() {
	type group struct {
		video   string
		dancers map[string][]Unit
	}
	groups := make(map[string]*group)
	order := make([]string, 0)
	for _, unit := range c.Units {
		if unit.Video == "" || unit.Dancer == "" {
			continue
		}
		g, ok := groups[unit.Video]
		if !ok {
			g = &group{video: unit.Video, dancers: make(map[string][]Unit)}
			groups[unit.Video] = g
			order = append(order, unit.Video)
		}
		g.dancers[unit.Dancer] = append(g.dancers[unit.Dancer], unit)
	}

	c.byVideo = make(map[string]int)
	for _, video := range order {
		g := groups[video]
		if len(g.dancers) != 2 {
			// A battle needs exactly two sides; anything else is dropped and
			// counted, never assigned.
			c.invalidBattles++
			continue
		}
		dancers := make([]string, 0, 2)
		for dancer := range g.dancers {
			dancers = append(dancers, dancer)
		}
		sort.Strings(dancers)
		battle := Battle{
			Video: video,
			Left:  Side{Dancer: dancers[0], Units: g.dancers[dancers[0]]},
			Right: Side{Dancer: dancers[1], Units: g.dancers[dancers[1]]},
		}
		c.byVideo[video] = len(c.battles)
		c.battles = append(c.battles, battle)
	}
}

// Battles returns every valid battle in source order.
func (c *Collection) Battles() []Battle {
	return c.battles
}

// BattleFor looks a battle up by video identifier.
func (c *Collection) BattleFor(video string) (Battle, bool) {
	idx, ok := c.byVideo[video]
	if !ok {
		return Battle{}, false
	}
	return c.battles[idx], true
}

// InvalidBattles reports how many videos were dropped because they did not
// resolve to exactly two dancers.
func (c *Collection) InvalidBattles() int {
	return c.invalidBattles
}
