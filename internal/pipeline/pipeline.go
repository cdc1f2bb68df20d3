// Package pipeline implements the two-stage classification of completed
// flows: standardize, project, binary attack/benign decision, multiclass
// attack categorization, and the fusion rule combining both.
package pipeline

import (
	"errors"
	"fmt"
	"math"

	"NetSentry/internal/model"
	"NetSentry/internal/schema"
)

// ErrNotReady is returned when Classify is called before model artifacts
// have been loaded. Callers must treat it as fatal, never as a benign verdict.
var ErrNotReady = errors.New("pipeline: model artifacts not loaded")

// multiclassOverrideThreshold is the confidence a non-benign multiclass call
// needs to override a benign binary call. The binary model's attack call is
// never overridden the other way.
const multiclassOverrideThreshold = 0.6

// Pipeline applies the loaded model artifacts to feature vectors. Stateless
// per call; one instance may serve concurrent classifications.
type Pipeline struct {
	arts *Artifacts
}

// New creates a pipeline over validated artifacts.
func New(arts *Artifacts) (*Pipeline, error) {
	if arts == nil {
		return nil, ErrNotReady
	}
	if err := arts.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{arts: arts}, nil
}

// Load reads artifacts from dir and constructs the pipeline.
func Load(dir string) (*Pipeline, error) {
	arts, err := LoadArtifacts(dir)
	if err != nil {
		return nil, err
	}
	return &Pipeline{arts: arts}, nil
}

// binaryDecision is the tagged outcome of the binary stage: the hard label
// plus however much probability information the model could provide.
type binaryDecision struct {
	attack     bool
	pAttack    float64
	confidence float64
}

// Classify runs the full pipeline over an assembled feature vector.
func (p *Pipeline) Classify(vector []float64) (*model.Verdict, error) {
	if p == nil || p.arts == nil {
		return nil, ErrNotReady
	}
	if len(vector) != schema.Count() {
		return nil, fmt.Errorf("pipeline: feature vector width %d, want %d", len(vector), schema.Count())
	}

	scaled := p.scale(vector)
	reduced := p.project(scaled)

	binary := p.decideBinary(reduced)
	probs, topIdx := p.decideMulticlass(reduced)
	topLabel := p.arts.Multiclass.Labels[topIdx]
	topProb := probs[topIdx]

	// Fusion: the multiclass model may escalate a benign binary call when
	// confident, but never deescalate a binary attack call.
	multiclassAttack := topLabel != BenignLabel && topProb >= multiclassOverrideThreshold
	isAttack := binary.attack || multiclassAttack

	verdict := &model.Verdict{
		IsAttack:         isAttack,
		BinaryConfidence: binary.confidence,
	}

	if !isAttack {
		verdict.AttackType = BenignLabel
		verdict.ClassProbabilities = map[string]float64{
			BenignLabel: 1 - binary.pAttack,
			"ATTACK":    binary.pAttack,
		}
		return verdict, nil
	}

	verdict.AttackType, verdict.ClassProbabilities = p.attackDistribution(probs)
	return verdict, nil
}

// scale applies the learned per-feature affine transform.
func (p *Pipeline) scale(vector []float64) []float64 {
	s := p.arts.Scaler
	out := make([]float64, len(vector))
	for i, x := range vector {
		out[i] = (x - s.Mean[i]) / s.Scale[i]
	}
	return out
}

// project applies the learned linear dimensionality reduction.
func (p *Pipeline) project(scaled []float64) []float64 {
	proj := p.arts.Projection
	out := make([]float64, len(proj.Components))
	for j, row := range proj.Components {
		var acc float64
		for i, c := range row {
			acc += c * (scaled[i] - proj.Mean[i])
		}
		out[j] = acc
	}
	return out
}

// decideBinary produces the hard label and a confidence following the
// fallback chain: native probability output, then decision score through the
// logistic function, then full trust in the hard label.
func (p *Pipeline) decideBinary(reduced []float64) binaryDecision {
	b := p.arts.Binary

	score := b.Bias
	for i, w := range b.Weights {
		score += w * reduced[i]
	}

	if b.Calibration != nil {
		// Native class-probability output.
		pAttack := sigmoid(-(b.Calibration.A*score + b.Calibration.B))
		return binaryDecision{
			attack:     pAttack >= 0.5,
			pAttack:    pAttack,
			confidence: math.Max(pAttack, 1-pAttack),
		}
	}

	attack := score > 0
	if !math.IsNaN(score) && !math.IsInf(score, 0) {
		// Real-valued decision score mapped through the logistic function.
		pAttack := sigmoid(score)
		confidence := pAttack
		if !attack {
			confidence = 1 - pAttack
		}
		return binaryDecision{
			attack:     attack,
			pAttack:    pAttack,
			confidence: confidence,
		}
	}

	// No probability information at all: fully trust the hard label.
	pAttack := 0.0
	if attack {
		pAttack = 1.0
	}
	return binaryDecision{
		attack:     attack,
		pAttack:    pAttack,
		confidence: 1.0,
	}
}

// decideMulticlass returns the softmax distribution over all labels and the
// arg-max index.
func (p *Pipeline) decideMulticlass(reduced []float64) ([]float64, int) {
	m := p.arts.Multiclass

	scores := make([]float64, len(m.Labels))
	maxScore := math.Inf(-1)
	for k, row := range m.Weights {
		s := m.Biases[k]
		for i, w := range row {
			s += w * reduced[i]
		}
		scores[k] = s
		if s > maxScore {
			maxScore = s
		}
	}

	// Softmax, shifted by the max score for numerical stability.
	probs := make([]float64, len(scores))
	var total float64
	for k, s := range scores {
		probs[k] = math.Exp(s - maxScore)
		total += probs[k]
	}
	topIdx := 0
	for k := range probs {
		probs[k] /= total
		if probs[k] > probs[topIdx] {
			topIdx = k
		}
	}
	return probs, topIdx
}

// attackDistribution strips the benign entry from the multiclass
// distribution, renormalizes the remainder to sum to 1 and selects the
// arg-max as the attack label. Zero remaining mass falls back to treating
// the total as 1 so the division is always defined.
func (p *Pipeline) attackDistribution(probs []float64) (string, map[string]float64) {
	m := p.arts.Multiclass
	benignIdx := m.BenignIndex()

	var mass float64
	for k, prob := range probs {
		if k == benignIdx {
			continue
		}
		mass += prob
	}
	if mass == 0 {
		mass = 1
	}

	dist := make(map[string]float64, len(m.Labels)-1)
	attackType := ""
	best := -1.0
	for k, prob := range probs {
		if k == benignIdx {
			continue
		}
		normalized := prob / mass
		dist[m.Labels[k]] = normalized
		if normalized > best {
			best = normalized
			attackType = m.Labels[k]
		}
	}
	return attackType, dist
}

// Info describes the loaded artifacts for the models API endpoint.
func (p *Pipeline) Info() map[string]interface{} {
	if p == nil || p.arts == nil {
		return map[string]interface{}{"error": "models not loaded"}
	}
	return map[string]interface{}{
		"binary_model": map[string]interface{}{
			"type":       "linear",
			"calibrated": p.arts.Binary.Calibration != nil,
			"n_features": len(p.arts.Projection.Components),
		},
		"multiclass_model": map[string]interface{}{
			"type":       "softmax",
			"classes":    p.arts.Multiclass.Labels,
			"n_features": len(p.arts.Projection.Components),
		},
		"preprocessing": map[string]interface{}{
			"scaler": "standard",
			"projection": map[string]interface{}{
				"n_components": len(p.arts.Projection.Components),
			},
		},
		"feature_count": schema.Count(),
	}
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
