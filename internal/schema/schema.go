// Package schema defines the ordered feature set expected by the trained
// models. The column order mirrors the training pipeline exactly and must not
// change, including the duplicated forward header length column.
package schema

import (
	"math"
	"strings"
)

// FeatureColumns is the exact feature order used during model training.
var FeatureColumns = []string{
	"Destination Port",
	"Flow Duration",
	"Total Fwd Packets",
	"Total Backward Packets",
	"Total Length of Fwd Packets",
	"Total Length of Bwd Packets",
	"Fwd Packet Length Max",
	"Fwd Packet Length Min",
	"Fwd Packet Length Mean",
	"Fwd Packet Length Std",
	"Bwd Packet Length Max",
	"Bwd Packet Length Min",
	"Bwd Packet Length Mean",
	"Bwd Packet Length Std",
	"Flow Bytes/s",
	"Flow Packets/s",
	"Flow IAT Mean",
	"Flow IAT Std",
	"Flow IAT Max",
	"Flow IAT Min",
	"Fwd IAT Total",
	"Fwd IAT Mean",
	"Fwd IAT Std",
	"Fwd IAT Max",
	"Fwd IAT Min",
	"Bwd IAT Total",
	"Bwd IAT Mean",
	"Bwd IAT Std",
	"Bwd IAT Max",
	"Bwd IAT Min",
	"Fwd PSH Flags",
	"Fwd URG Flags",
	"Fwd Header Length",
	"Bwd Header Length",
	"Fwd Packets/s",
	"Bwd Packets/s",
	"Min Packet Length",
	"Max Packet Length",
	"Packet Length Mean",
	"Packet Length Std",
	"Packet Length Variance",
	"FIN Flag Count",
	"SYN Flag Count",
	"RST Flag Count",
	"PSH Flag Count",
	"ACK Flag Count",
	"URG Flag Count",
	"CWE Flag Count",
	"ECE Flag Count",
	"Down/Up Ratio",
	"Average Packet Size",
	"Avg Fwd Segment Size",
	"Avg Bwd Segment Size",
	"Fwd Header Length.1",
	"Subflow Fwd Packets",
	"Subflow Fwd Bytes",
	"Subflow Bwd Packets",
	"Subflow Bwd Bytes",
	"Init_Win_bytes_forward",
	"Init_Win_bytes_backward",
	"act_data_pkt_fwd",
	"min_seg_size_forward",
	"Active Mean",
	"Active Std",
	"Active Max",
	"Active Min",
	"Idle Mean",
	"Idle Std",
	"Idle Max",
	"Idle Min",
}

// Count returns the number of feature columns.
func Count() int {
	return len(FeatureColumns)
}

// NormalizeName converts an external-facing field name to the canonical
// lookup form: lower case with '/', '.' and spaces folded to underscores.
// "Flow Bytes/s" and "flow_bytes_s" resolve to the same column.
func NormalizeName(name string) string {
	r := strings.NewReplacer(" ", "_", "/", "_", ".", "_")
	return strings.ToLower(r.Replace(name))
}

var normalizedIndex = buildNormalizedIndex()

func buildNormalizedIndex() map[string]int {
	idx := make(map[string]int, len(FeatureColumns))
	for i, col := range FeatureColumns {
		idx[NormalizeName(col)] = i
	}
	return idx
}

// ColumnIndex resolves a schema column or any accepted external alias to its
// position in the feature vector.
func ColumnIndex(name string) (int, bool) {
	i, ok := normalizedIndex[NormalizeName(name)]
	return i, ok
}

// VectorFromMap assembles the ordered feature vector from a name-to-value
// map. Keys may use schema names or external aliases. Missing columns are
// substituted with 0 and returned by name so callers can log a warning; a
// missing value never aborts classification. NaN and infinite values are
// replaced with 0 before entering the vector.
func VectorFromMap(features map[string]float64) ([]float64, []string) {
	byIndex := make(map[int]float64, len(features))
	for name, value := range features {
		if i, ok := ColumnIndex(name); ok {
			byIndex[i] = value
		}
	}

	vector := make([]float64, len(FeatureColumns))
	var missing []string
	for i, col := range FeatureColumns {
		value, ok := byIndex[i]
		if !ok {
			missing = append(missing, col)
			continue
		}
		if math.IsNaN(value) || math.IsInf(value, 0) {
			value = 0
		}
		vector[i] = value
	}
	return vector, missing
}
