package flow

import (
	"math"
	"time"

	"NetSentry/internal/model"
)

// Accumulator owns the running statistics of a single flow. It is created by
// the registry on the first packet for a key and mutated by every subsequent
// packet; the registry's lock guards all mutation.
type Accumulator struct {
	Tuple model.FiveTuple // orientation of the first observed packet

	firstSeen time.Time
	lastSeen  time.Time

	fwdPackets uint64
	bwdPackets uint64
	fwdBytes   uint64
	bwdBytes   uint64

	fwdLengths []float64
	bwdLengths []float64

	fwdTimestamps []time.Time
	bwdTimestamps []time.Time

	fwdPSHFlags uint64
	fwdURGFlags uint64
	finFlags    uint64
	synFlags    uint64
	rstFlags    uint64
	pshFlags    uint64
	ackFlags    uint64
	urgFlags    uint64
	cweFlags    uint64
	eceFlags    uint64

	fwdHeaderBytes uint64
	bwdHeaderBytes uint64

	initWinFwd int
	initWinBwd int

	subflowFwdPackets uint64
	subflowFwdBytes   uint64
	subflowBwdPackets uint64
	subflowBwdBytes   uint64

	actDataPktFwd uint64
	minSegSizeFwd uint64
	activeSamples []float64
	idleSamples   []float64
}

// NewAccumulator creates the accumulator for a flow first observed with the
// given tuple orientation.
func NewAccumulator(ft model.FiveTuple, firstSeen time.Time) *Accumulator {
	return &Accumulator{
		Tuple:     ft,
		firstSeen: firstSeen,
		lastSeen:  firstSeen,
	}
}

// AddPacket folds one packet event into the running state. It never fails;
// a flagless event simply leaves the flag counters untouched.
func (a *Accumulator) AddPacket(ev *model.PacketEvent) {
	if ev.Forward {
		a.fwdPackets++
		a.fwdBytes += uint64(ev.Size)
		a.fwdLengths = append(a.fwdLengths, float64(ev.Size))
		a.fwdTimestamps = append(a.fwdTimestamps, ev.Timestamp)
		a.fwdHeaderBytes += uint64(ev.HeaderSize)
		if a.initWinFwd == 0 {
			a.initWinFwd = ev.WindowSize
		}
	} else {
		a.bwdPackets++
		a.bwdBytes += uint64(ev.Size)
		a.bwdLengths = append(a.bwdLengths, float64(ev.Size))
		a.bwdTimestamps = append(a.bwdTimestamps, ev.Timestamp)
		a.bwdHeaderBytes += uint64(ev.HeaderSize)
		if a.initWinBwd == 0 {
			a.initWinBwd = ev.WindowSize
		}
	}

	if ev.Flags.PSH {
		a.pshFlags++
		if ev.Forward {
			a.fwdPSHFlags++
		}
	}
	if ev.Flags.URG {
		a.urgFlags++
		if ev.Forward {
			a.fwdURGFlags++
		}
	}
	if ev.Flags.FIN {
		a.finFlags++
	}
	if ev.Flags.SYN {
		a.synFlags++
	}
	if ev.Flags.RST {
		a.rstFlags++
	}
	if ev.Flags.ACK {
		a.ackFlags++
	}
	if ev.Flags.ECE {
		a.eceFlags++
	}
	if ev.Flags.CWE {
		a.cweFlags++
	}

	a.lastSeen = ev.Timestamp
}

// FirstSeen returns the timestamp of the first packet.
func (a *Accumulator) FirstSeen() time.Time { return a.firstSeen }

// LastSeen returns the timestamp of the most recent packet.
func (a *Accumulator) LastSeen() time.Time { return a.lastSeen }

// PacketCount returns the total packet count across both directions.
func (a *Accumulator) PacketCount() uint64 { return a.fwdPackets + a.bwdPackets }

// Features derives the full feature map from the current state without
// mutating it, so draining twice with no intervening packet yields identical
// results. Durations and inter-arrival times are expressed in microseconds,
// matching the unit the models were trained on.
func (a *Accumulator) Features() map[string]float64 {
	duration := float64(a.lastSeen.Sub(a.firstSeen).Microseconds())

	fwdLens := a.fwdLengths
	bwdLens := a.bwdLengths
	allLens := make([]float64, 0, len(fwdLens)+len(bwdLens))
	allLens = append(allLens, fwdLens...)
	allLens = append(allLens, bwdLens...)

	fwdIAT := interArrivals(a.fwdTimestamps)
	bwdIAT := interArrivals(a.bwdTimestamps)
	flowIAT := interArrivals(mergeTimestamps(a.fwdTimestamps, a.bwdTimestamps))

	totalBytes := float64(a.fwdBytes + a.bwdBytes)
	totalPackets := float64(a.fwdPackets + a.bwdPackets)

	downUpRatio := 0.0
	if a.bwdPackets > 0 {
		downUpRatio = float64(a.fwdPackets) / float64(a.bwdPackets)
	}

	f := map[string]float64{
		"Destination Port":            float64(a.Tuple.DstPort),
		"Flow Duration":               duration,
		"Total Fwd Packets":           float64(a.fwdPackets),
		"Total Backward Packets":      float64(a.bwdPackets),
		"Total Length of Fwd Packets": float64(a.fwdBytes),
		"Total Length of Bwd Packets": float64(a.bwdBytes),
		"Fwd Packet Length Max":       maxOrZero(fwdLens),
		"Fwd Packet Length Min":       minOrZero(fwdLens),
		"Fwd Packet Length Mean":      mean(fwdLens),
		"Fwd Packet Length Std":       stddev(fwdLens),
		"Bwd Packet Length Max":       maxOrZero(bwdLens),
		"Bwd Packet Length Min":       minOrZero(bwdLens),
		"Bwd Packet Length Mean":      mean(bwdLens),
		"Bwd Packet Length Std":       stddev(bwdLens),
		"Flow Bytes/s":                safeRate(totalBytes, duration),
		"Flow Packets/s":              safeRate(totalPackets, duration),
		"Flow IAT Mean":               mean(flowIAT),
		"Flow IAT Std":                stddev(flowIAT),
		"Flow IAT Max":                maxOrZero(flowIAT),
		"Flow IAT Min":                minOrZero(flowIAT),
		"Fwd IAT Total":               sum(fwdIAT),
		"Fwd IAT Mean":                mean(fwdIAT),
		"Fwd IAT Std":                 stddev(fwdIAT),
		"Fwd IAT Max":                 maxOrZero(fwdIAT),
		"Fwd IAT Min":                 minOrZero(fwdIAT),
		"Bwd IAT Total":               sum(bwdIAT),
		"Bwd IAT Mean":                mean(bwdIAT),
		"Bwd IAT Std":                 stddev(bwdIAT),
		"Bwd IAT Max":                 maxOrZero(bwdIAT),
		"Bwd IAT Min":                 minOrZero(bwdIAT),
		"Fwd PSH Flags":               float64(a.fwdPSHFlags),
		"Fwd URG Flags":               float64(a.fwdURGFlags),
		"Fwd Header Length":           float64(a.fwdHeaderBytes),
		"Bwd Header Length":           float64(a.bwdHeaderBytes),
		"Fwd Packets/s":               safeRate(float64(a.fwdPackets), duration),
		"Bwd Packets/s":               safeRate(float64(a.bwdPackets), duration),
		"Min Packet Length":           minOrZero(allLens),
		"Max Packet Length":           maxOrZero(allLens),
		"Packet Length Mean":          mean(allLens),
		"Packet Length Std":           stddev(allLens),
		"Packet Length Variance":      variance(allLens),
		"FIN Flag Count":              float64(a.finFlags),
		"SYN Flag Count":              float64(a.synFlags),
		"RST Flag Count":              float64(a.rstFlags),
		"PSH Flag Count":              float64(a.pshFlags),
		"ACK Flag Count":              float64(a.ackFlags),
		"URG Flag Count":              float64(a.urgFlags),
		"CWE Flag Count":              float64(a.cweFlags),
		"ECE Flag Count":              float64(a.eceFlags),
		"Down/Up Ratio":               downUpRatio,
		"Average Packet Size":         mean(allLens),
		"Avg Fwd Segment Size":        mean(fwdLens),
		"Avg Bwd Segment Size":        mean(bwdLens),
		// Duplicated column from the training dataset; must mirror
		// "Fwd Header Length" exactly.
		"Fwd Header Length.1":     float64(a.fwdHeaderBytes),
		"Subflow Fwd Packets":     float64(a.subflowFwdPackets),
		"Subflow Fwd Bytes":       float64(a.subflowFwdBytes),
		"Subflow Bwd Packets":     float64(a.subflowBwdPackets),
		"Subflow Bwd Bytes":       float64(a.subflowBwdBytes),
		"Init_Win_bytes_forward":  float64(a.initWinFwd),
		"Init_Win_bytes_backward": float64(a.initWinBwd),
		"act_data_pkt_fwd":        float64(a.actDataPktFwd),
		"min_seg_size_forward":    float64(a.minSegSizeFwd),
		// Active/Idle burst tracking is deliberately not populated; the
		// models were trained against zero-filled columns here.
		"Active Mean": mean(a.activeSamples),
		"Active Std":  stddev(a.activeSamples),
		"Active Max":  maxOrZero(a.activeSamples),
		"Active Min":  minOrZero(a.activeSamples),
		"Idle Mean":   mean(a.idleSamples),
		"Idle Std":    stddev(a.idleSamples),
		"Idle Max":    maxOrZero(a.idleSamples),
		"Idle Min":    minOrZero(a.idleSamples),
	}

	for k, v := range f {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			f[k] = 0
		}
	}
	return f
}

// interArrivals returns the successive timestamp differences in microseconds.
// Fewer than two samples yield a single zero, not an empty statistic.
func interArrivals(ts []time.Time) []float64 {
	if len(ts) < 2 {
		return []float64{0}
	}
	iat := make([]float64, 0, len(ts)-1)
	for i := 1; i < len(ts); i++ {
		iat = append(iat, float64(ts[i].Sub(ts[i-1]).Microseconds()))
	}
	return iat
}

// mergeTimestamps merges two time-ordered sequences into one ordered sequence.
func mergeTimestamps(a, b []time.Time) []time.Time {
	merged := make([]time.Time, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i].Before(b[j]) {
			merged = append(merged, a[i])
			i++
		} else {
			merged = append(merged, b[j])
			j++
		}
	}
	merged = append(merged, a[i:]...)
	merged = append(merged, b[j:]...)
	return merged
}

// safeRate scales a total to events-per-second over a duration in
// microseconds. Zero duration means zero rate, never a division by zero.
func safeRate(total, durationMicros float64) float64 {
	if durationMicros <= 0 {
		return 0
	}
	rate := total / durationMicros * 1e6
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0
	}
	return rate
}

func sum(xs []float64) float64 {
	s := 0.0
	for _, x := range xs {
		s += x
	}
	return s
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return sum(xs) / float64(len(xs))
}

// variance is the population variance, matching the training pipeline.
func variance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	v := 0.0
	for _, x := range xs {
		d := x - m
		v += d * d
	}
	return v / float64(len(xs))
}

func stddev(xs []float64) float64 {
	return math.Sqrt(variance(xs))
}

func maxOrZero(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

func minOrZero(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}
