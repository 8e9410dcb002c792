package transaction

import "strings"

// Point is one element of the TxStartPoint / TxStopPoint configuration
// sets (spec.md §4.5).
type Point string

const (
	PointParkingBayOccupancy Point = "ParkingBayOccupancy"
	PointEVConnected         Point = "EVConnected"
	PointAuthorized          Point = "Authorized"
	PointDataSigned          Point = "DataSigned"
	PointPowerPathClosed     Point = "PowerPathClosed"
	PointEnergyTransfer      Point = "EnergyTransfer"
)

// allPoints fixes emission order for ParsePoints/SerializePoints so the
// round trip in spec.md §8 ("parseTxStartStopPoint(serialize(S)) = S") is
// stable regardless of the order the input CSL listed members in.
var allPoints = []Point{
	PointParkingBayOccupancy,
	PointEVConnected,
	PointAuthorized,
	PointDataSigned,
	PointPowerPathClosed,
	PointEnergyTransfer,
}

// PointSet is a subset of the allowed Point enum, as parsed from a
// comma-separated configuration string.
type PointSet map[Point]bool

// ParsePoints parses a comma-separated list of point names. Unknown tokens
// are ignored (tolerant parsing, matching the rest of this core's
// configuration-loading posture).
func ParsePoints(csl string) PointSet {
	set := make(PointSet)
	for _, tok := range strings.Split(csl, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		for _, p := range allPoints {
			if Point(tok) == p {
				set[p] = true
				break
			}
		}
	}
	return set
}

// SerializePoints renders set back into a comma-separated string in a fixed
// canonical order.
func SerializePoints(set PointSet) string {
	var parts []string
	for _, p := range allPoints {
		if set[p] {
			parts = append(parts, string(p))
		}
	}
	return strings.Join(parts, ",")
}

func (s PointSet) has(p Point) bool { return s != nil && s[p] }
