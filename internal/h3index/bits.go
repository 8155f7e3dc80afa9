package h3index

import "math"

// H3 64-bit layout:
//
//	bit 63     reserved, always 0
//	bits 59-62 mode (1 cell, 2 directed edge, 4 vertex)
//	bits 56-58 mode dependent (edge direction / vertex number)
//	bits 52-55 resolution
//	bits 45-51 base cell
//	bits 0-44  fifteen 3-bit digits
const (
	modeOffset = 59
	modeMask   = uint64(0xF) << modeOffset

	reservedOffset = 56
	reservedMask   = uint64(0x7) << reservedOffset

	resOffset = 52
	resMask   = uint64(0xF) << resOffset

	modeCell         = 1
	modeDirectedEdge = 2
	modeVertex       = 4

	MaxResolution = 15
)

func modeOf(raw uint64) int {
	return int((raw & modeMask) >> modeOffset)
}

func reservedOf(raw uint64) int {
	return int((raw & reservedMask) >> reservedOffset)
}

func resolutionOf(raw uint64) int {
	return int((raw & resMask) >> resOffset)
}

// ownerBits rewrites a vertex index into its owner cell: cell mode, mode
// dependent bits cleared.
func ownerBits(raw uint64) uint64 {
	raw &^= modeMask | reservedMask
	return raw | uint64(modeCell)<<modeOffset
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
