package grip

import (
	"fmt"
	"math"
	"strconv"
)

// BaseAngles are the pixel-friendly rotations within one 45 degree sector.
// Each is the slope angle of a small integer pixel step.
var BaseAngles = [...]float64{
	0,
	11.31, // 1/5
	18.43, // 1/3
	26.57, // 1/2
	33.69, // 2/3
}

const (
	// SectorWidth is the angular width the base angles are repeated across
	SectorWidth = 45.0
	// Sectors is the number of sectors in a full turn
	Sectors = 8
	// LadderSize is the number of angles in a full rotation
	LadderSize = len(BaseAngles) * Sectors
)

// AngleLadder returns the full, ordered list of supported rotation angles
func AngleLadder() []float64 {
	ladder := make([]float64, LadderSize)
	for n := range ladder {
		ladder[n] = LadderAngle(n)
	}
	return ladder
}

// LadderAngle returns the n-th angle of the ladder
func LadderAngle(n int) float64 {
	k := len(BaseAngles)
	return BaseAngles[n%k] + SectorWidth*float64(n/k)
}

// Label builds the output name of a variant, e.g. "07_63.43°" or "47_63.43°_mir"
func Label(index int, angle float64, mirrored bool) string {
	label := fmt.Sprintf("%02d_%s°", index, formatAngle(angle))
	if mirrored {
		label += "_mir"
	}
	return label
}

func formatAngle(angle float64) string {
	return strconv.FormatFloat(math.Round(angle*100)/100, 'f', -1, 64)
}
