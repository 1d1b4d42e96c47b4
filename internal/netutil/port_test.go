package netutil

import (
	"net"
	"testing"
)

func TestSelectBindAddrPrefersFreeAddress(t *testing.T) {
	got, err := SelectBindAddr("127.0.0.1:0", nil, false)
	if err != nil {
		t.Fatalf("SelectBindAddr() = %v; want nil", err)
	}
	if got != "127.0.0.1:0" {
		t.Fatalf("SelectBindAddr() = %q; want the preferred address", got)
	}
}

func TestSelectBindAddrFallsBackWhenBusy(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen() failed: %v", err)
	}
	defer ln.Close()
	busy := ln.Addr().String()

	got, err := SelectBindAddr(busy, []string{"127.0.0.1:0"}, true)
	if err != nil {
		t.Fatalf("SelectBindAddr() = %v; want nil", err)
	}
	if got == busy {
		t.Fatalf("SelectBindAddr() = %q; want a fallback, not the busy address", got)
	}
}

func TestSelectBindAddrNoFallbackErrors(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen() failed: %v", err)
	}
	defer ln.Close()

	if _, err := SelectBindAddr(ln.Addr().String(), []string{"127.0.0.1:0"}, false); err == nil {
		t.Fatal("SelectBindAddr() = nil error for busy address without fallback")
	}
}

func TestSelectBindAddrAllBusy(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen() failed: %v", err)
	}
	defer ln.Close()
	busy := ln.Addr().String()

	if _, err := SelectBindAddr(busy, []string{busy}, true); err == nil {
		t.Fatal("SelectBindAddr() = nil error with no available candidates")
	}
}
