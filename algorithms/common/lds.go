package common

import (
	"fmt"
	"math"
)

// GroupDegree is the degree threshold (1+phi)^group of a level group.
func GroupDegree(group int, phi float64) float64 {
	return math.Pow(1.0+phi, float64(group))
}

// LDS is a level data structure: every vertex sits on a level, and
// levels are bundled into groups of levelsPerGroup consecutive levels.
type LDS struct {
	levelsPerGroup float64
	L              *VertexArray[uint32]
}

// NewLDS puts all n vertices on level 0.
func NewLDS(n, workers int, levelsPerGroup float64) *LDS {
	return &LDS{
		levelsPerGroup: levelsPerGroup,
		L:              NewVertexArray[uint32](n, workers, nil),
	}
}

// GetLevel returns the level of vertex ngh.
func (lds *LDS) GetLevel(ngh uint32) (uint32, error) {
	if int(ngh) >= lds.L.Len() {
		return 0, fmt.Errorf("vertex index %v out of bounds", ngh)
	}
	return lds.L.Get(ngh), nil
}

// LevelIncrease moves u one level up.
func (lds *LDS) LevelIncrease(u uint32) error {
	if int(u) >= lds.L.Len() {
		return fmt.Errorf("vertex index %v out of bounds", u)
	}
	lds.L.Set(u, lds.L.Get(u)+1)
	return nil
}

// GroupForLevel returns the group a level belongs to.
func (lds *LDS) GroupForLevel(level uint32) uint32 {
	return uint32(math.Floor(float64(level) / lds.levelsPerGroup))
}

// LevelsPerGroup returns the group width.
func (lds *LDS) LevelsPerGroup() float64 { return lds.levelsPerGroup }
