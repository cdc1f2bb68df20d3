package model

import "testing"

func TestSeverityFor(t *testing.T) {
	cases := []struct {
		verdict Verdict
		want    string
	}{
		{Verdict{IsAttack: false, BinaryConfidence: 0.99}, "none"},
		{Verdict{IsAttack: true, BinaryConfidence: 0.5}, "low"},
		{Verdict{IsAttack: true, BinaryConfidence: 0.7}, "low"},
		{Verdict{IsAttack: true, BinaryConfidence: 0.75}, "medium"},
		{Verdict{IsAttack: true, BinaryConfidence: 0.9}, "medium"},
		{Verdict{IsAttack: true, BinaryConfidence: 0.95}, "high"},
	}
	for _, c := range cases {
		if got := SeverityFor(&c.verdict); got != c.want {
			t.Errorf("SeverityFor(attack=%v, conf=%v) = %q, want %q",
				c.verdict.IsAttack, c.verdict.BinaryConfidence, got, c.want)
		}
	}
}

func TestProtocolName(t *testing.T) {
	cases := map[uint8]string{
		6:   "TCP",
		17:  "UDP",
		1:   "ICMP",
		47:  "Unknown",
		255: "Unknown",
	}
	for proto, want := range cases {
		if got := ProtocolName(proto); got != want {
			t.Errorf("ProtocolName(%d) = %q, want %q", proto, got, want)
		}
	}
}
