package crypto

import (
	"encoding/json"
	"os"
)

// ModelWeights are linear weights over the convergence feature vector,
// trained offline and loaded from a JSON file when present.
type ModelWeights struct {
	Weights []float64 `json:"weights"`
}

// LoadModelWeights reads trained weights; returns nil when no model file
// exists, which switches prediction to the heuristic path.
func LoadModelWeights(path string) *ModelWeights {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var m ModelWeights
	if err := json.Unmarshal(raw, &m); err != nil || len(m.Weights) == 0 {
		return nil
	}
	return &m
}

// ConvergenceProbability estimates the chance the favored side settles at
// 100. With a model, it is a weighted sum over normalized features; without
// one, a heuristic that starts from the edge and adds credit when spot
// trend and book flow agree with the chosen side. Clamped to [0.1, 0.95].
func ConvergenceProbability(opp Opportunity, spot *SpotSignal, flow *Flow, model *ModelWeights) float64 {
	if model != nil {
		spotConf, flowStrength, flowBuying := 0.5, 0.5, 0.0
		if spot != nil {
			spotConf = spot.Confidence
		}
		if flow != nil {
			flowStrength = flow.Strength
			if flow.Direction == "buying" {
				flowBuying = 1
			}
		}
		features := []float64{
			float64(opp.Edge) / 20,
			opp.MinutesLeft / 5,
			spotConf,
			flowStrength,
			flowBuying,
			float64(opp.Volume) / 10000,
		}
		prob := 0.0
		for i, f := range features {
			if i < len(model.Weights) {
				prob += f * model.Weights[i]
			}
		}
		return clamp(prob)
	}

	prob := 0.5 + float64(opp.Edge)/40
	if spot != nil {
		if (opp.Side == "yes" && spot.Trend == "up") || (opp.Side == "no" && spot.Trend == "down") {
			prob += 0.15 * spot.Confidence
		}
	}
	if flow != nil {
		if (opp.Side == "yes" && flow.Direction == "buying") || (opp.Side == "no" && flow.Direction == "selling") {
			prob += 0.1 * flow.Strength
		}
	}
	return clamp(prob)
}

func clamp(p float64) float64 {
	if p > 0.95 {
		return 0.95
	}
	if p < 0.1 {
		return 0.1
	}
	return p
}
