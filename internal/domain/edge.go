package domain

// EdgeThreshold is the minimum edge required to act. It tightens as the game
// clock runs down and never drops below p.MinEdgeThreshold.
func EdgeThreshold(p Params, timeRemaining float64) float64 {
	t := max(timeRemaining, 0)
	lateFac := 1 - p.LateTighten*(LateFactor(t, 600)-1)
	return max(p.MinEdgeThreshold, p.BaseEdgeThreshold*lateFac)
}

// Edges holds the directional edge against both sides of the book.
// Positive Buy means fair is above the ask; positive Sell means the bid is
// above fair.
type Edges struct {
	Buy  float64
	Sell float64
}

// ComputeEdges returns fair - ask and bid - fair.
func ComputeEdges(fair, bestBid, bestAsk float64) Edges {
	return Edges{Buy: fair - bestAsk, Sell: bestBid - fair}
}

// Actionable reports whether edge strictly exceeds the threshold.
func Actionable(edge, threshold float64) bool {
	return edge > threshold
}
