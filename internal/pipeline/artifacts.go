package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"NetSentry/internal/schema"
)

// BenignLabel is the multiclass label reserved for non-attack traffic.
const BenignLabel = "BENIGN"

// Scaler holds the learned per-feature affine transform.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Projection holds the learned linear dimensionality reduction.
type Projection struct {
	Mean       []float64   `json:"mean"`
	Components [][]float64 `json:"components"` // one row per reduced dimension
}

// Calibration maps a decision score to a class probability (Platt scaling).
// Its presence is what gives the binary model a native probability output.
type Calibration struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// BinaryModel is the linear attack/benign classifier over the reduced vector.
type BinaryModel struct {
	Weights     []float64    `json:"weights"`
	Bias        float64      `json:"bias"`
	Calibration *Calibration `json:"calibration,omitempty"`
}

// MulticlassModel is the softmax classifier over all known labels, benign
// included.
type MulticlassModel struct {
	Labels  []string    `json:"labels"`
	Weights [][]float64 `json:"weights"` // one row per label
	Biases  []float64   `json:"biases"`
}

// Artifacts bundles everything the pipeline needs. Loaded once at startup;
// read-only afterwards and safe to share across concurrent classifications.
type Artifacts struct {
	Scaler     *Scaler
	Projection *Projection
	Binary     *BinaryModel
	Multiclass *MulticlassModel
}

// Artifact file names inside the model directory.
const (
	scalerFile     = "scaler.json"
	projectionFile = "pca.json"
	binaryFile     = "binary.json"
	multiclassFile = "multiclass.json"
)

// LoadArtifacts reads and validates all model artifacts from dir. Any
// missing or malformed artifact is an error; the caller is expected to treat
// it as fatal and not start accepting packets.
func LoadArtifacts(dir string) (*Artifacts, error) {
	a := &Artifacts{
		Scaler:     &Scaler{},
		Projection: &Projection{},
		Binary:     &BinaryModel{},
		Multiclass: &MulticlassModel{},
	}

	if err := loadJSON(filepath.Join(dir, scalerFile), a.Scaler); err != nil {
		return nil, err
	}
	if err := loadJSON(filepath.Join(dir, projectionFile), a.Projection); err != nil {
		return nil, err
	}
	if err := loadJSON(filepath.Join(dir, binaryFile), a.Binary); err != nil {
		return nil, err
	}
	if err := loadJSON(filepath.Join(dir, multiclassFile), a.Multiclass); err != nil {
		return nil, err
	}

	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

func loadJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read model artifact: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal model artifact '%s': %w", path, err)
	}
	return nil
}

// Validate checks that the artifact dimensions agree with the feature schema
// and with each other.
func (a *Artifacts) Validate() error {
	n := schema.Count()

	if len(a.Scaler.Mean) != n || len(a.Scaler.Scale) != n {
		return fmt.Errorf("scaler dimensions %d/%d do not match schema width %d",
			len(a.Scaler.Mean), len(a.Scaler.Scale), n)
	}
	// A zero scale would divide by zero during standardization; the training
	// pipeline stores 1 for constant features, so restore that here.
	for i, s := range a.Scaler.Scale {
		if s == 0 {
			a.Scaler.Scale[i] = 1
		}
	}

	if len(a.Projection.Mean) != n {
		return fmt.Errorf("projection mean width %d does not match schema width %d", len(a.Projection.Mean), n)
	}
	if len(a.Projection.Components) == 0 {
		return fmt.Errorf("projection has no components")
	}
	for i, row := range a.Projection.Components {
		if len(row) != n {
			return fmt.Errorf("projection component %d width %d does not match schema width %d", i, len(row), n)
		}
	}
	reduced := len(a.Projection.Components)

	if len(a.Binary.Weights) > 0 && len(a.Binary.Weights) != reduced {
		return fmt.Errorf("binary model width %d does not match projection width %d", len(a.Binary.Weights), reduced)
	}

	if len(a.Multiclass.Labels) == 0 {
		return fmt.Errorf("multiclass model has no labels")
	}
	if len(a.Multiclass.Weights) != len(a.Multiclass.Labels) || len(a.Multiclass.Biases) != len(a.Multiclass.Labels) {
		return fmt.Errorf("multiclass model has %d labels but %d weight rows and %d biases",
			len(a.Multiclass.Labels), len(a.Multiclass.Weights), len(a.Multiclass.Biases))
	}
	for i, row := range a.Multiclass.Weights {
		if len(row) != reduced {
			return fmt.Errorf("multiclass weight row %d width %d does not match projection width %d", i, len(row), reduced)
		}
	}
	if a.Multiclass.BenignIndex() < 0 {
		return fmt.Errorf("multiclass model labels do not include %q", BenignLabel)
	}

	return nil
}

// BenignIndex returns the position of the benign label, or -1 if absent.
func (m *MulticlassModel) BenignIndex() int {
	for i, label := range m.Labels {
		if label == BenignLabel {
			return i
		}
	}
	return -1
}
