package retrieval

// Weights are the per-path fusion weights ("Fusion
// weights"), always summing to 1.0 for a given QueryType.
type Weights struct {
	FTS   float64
	Dense float64
	Graph float64
}

// WeightsFor returns the fixed weight triple for a query type.
func WeightsFor(qt QueryType) Weights {
	switch qt {
	case QueryIdentifier:
		return Weights{FTS: 0.55, Dense: 0.25, Graph: 0.20}
	case QueryStructural:
		return Weights{FTS: 0.20, Dense: 0.20, Graph: 0.60}
	default:
		return Weights{FTS: 0.25, Dense: 0.60, Graph: 0.15}
	}
}

// redistributeGraphWeight implements Path C: "otherwise path is
// empty and its weight is redistributed to the remaining paths
// proportionally."
func redistributeGraphWeight(w Weights) Weights {
	if w.FTS+w.Dense == 0 {
		return Weights{FTS: 0.5, Dense: 0.5, Graph: 0}
	}
	scale := (w.FTS + w.Dense + w.Graph) / (w.FTS + w.Dense)
	return Weights{FTS: w.FTS * scale, Dense: w.Dense * scale, Graph: 0}
}
