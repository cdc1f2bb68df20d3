package flow

import (
	"net"
	"testing"

	"NetSentry/internal/model"
)

func reverse(ft model.FiveTuple) model.FiveTuple {
	return model.FiveTuple{
		SrcIP:    ft.DstIP,
		DstIP:    ft.SrcIP,
		SrcPort:  ft.DstPort,
		DstPort:  ft.SrcPort,
		Protocol: ft.Protocol,
	}
}

func TestKeyOfSymmetry(t *testing.T) {
	ft := model.FiveTuple{
		SrcIP:    net.ParseIP("192.168.0.1"),
		DstIP:    net.ParseIP("8.8.8.8"),
		SrcPort:  12345,
		DstPort:  53,
		Protocol: 17,
	}

	if KeyOf(ft) != KeyOf(reverse(ft)) {
		t.Errorf("Key should be direction-independent: %q vs %q", KeyOf(ft), KeyOf(reverse(ft)))
	}
}

func TestKeyOfProtocolDistinguishes(t *testing.T) {
	ft := model.FiveTuple{
		SrcIP:    net.ParseIP("10.0.0.1"),
		DstIP:    net.ParseIP("10.0.0.2"),
		SrcPort:  1000,
		DstPort:  2000,
		Protocol: 6,
	}
	other := ft
	other.Protocol = 17

	if KeyOf(ft) == KeyOf(other) {
		t.Error("Flows differing only in protocol must not share a key")
	}
}

func TestKeyOfSamePortsDifferentIPs(t *testing.T) {
	a := model.FiveTuple{
		SrcIP:    net.ParseIP("10.0.0.1"),
		DstIP:    net.ParseIP("10.0.0.2"),
		SrcPort:  80,
		DstPort:  80,
		Protocol: 6,
	}
	b := a
	b.DstIP = net.ParseIP("10.0.0.3")

	if KeyOf(a) == KeyOf(b) {
		t.Error("Different endpoint pairs must not collide")
	}
}

func TestIsForwardConsistentWithKey(t *testing.T) {
	ft := model.FiveTuple{
		SrcIP:    net.ParseIP("192.168.0.1"),
		DstIP:    net.ParseIP("8.8.8.8"),
		SrcPort:  12345,
		DstPort:  53,
		Protocol: 17,
	}

	// Exactly one orientation of the same flow is forward.
	if IsForward(ft) == IsForward(reverse(ft)) {
		t.Error("A tuple and its reverse cannot share a direction label")
	}
}

func TestIsForwardPortTiebreak(t *testing.T) {
	ft := model.FiveTuple{
		SrcIP:    net.ParseIP("10.0.0.1"),
		DstIP:    net.ParseIP("10.0.0.1"),
		SrcPort:  100,
		DstPort:  200,
		Protocol: 6,
	}
	if !IsForward(ft) {
		t.Error("Lower source port on equal addresses should be forward")
	}
	if IsForward(reverse(ft)) {
		t.Error("Higher source port on equal addresses should be backward")
	}
}
