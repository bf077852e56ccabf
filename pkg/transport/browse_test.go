package transport

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewCoordinator(t *testing.T) {
	c := newCoordinator("SLZB-06", "slzb-06.local.", 6638,
		[]net.IP{net.ParseIP("192.168.1.20")},
		[]net.IP{net.ParseIP("fe80::1")},
		[]string{"version=2.5.1", "Board=slzb-06", "radio_type=znp", "flag", "=orphan"},
	)

	assert.Equal(t, "SLZB-06", c.Instance)
	assert.Equal(t, uint16(6638), c.Port)
	assert.Equal(t, []string{"192.168.1.20", "fe80::1"}, c.Addresses)
	assert.Equal(t, map[string]string{
		"version":    "2.5.1",
		"board":      "slzb-06",
		"radio_type": "znp",
		"flag":       "",
	}, c.TXT)
}

func TestCoordinatorDevice(t *testing.T) {
	tests := []struct {
		name string
		c    Coordinator
		want string
	}{
		{"prefers ipv4", Coordinator{Host: "gw.local.", Port: 6638, Addresses: []string{"fd00::5", "10.0.0.5"}}, "tcp://10.0.0.5:6638"},
		{"host name", Coordinator{Host: "gw.local.", Port: 6638, Addresses: []string{"fd00::5"}}, "tcp://gw.local:6638"},
		{"ipv6 only", Coordinator{Port: 6638, Addresses: []string{"fd00::5"}}, "tcp://[fd00::5]:6638"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.c.Device())
		})
	}
}

func TestBrowseUnknownInterface(t *testing.T) {
	_, err := Browse(context.Background(), BrowseOptions{Interface: "does-not-exist0"})
	assert.Error(t, err)
}

func TestBrowseClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := Browse(ctx, BrowseOptions{Service: "_znp-test._tcp"})
	if err != nil {
		t.Skipf("mDNS unavailable: %v", err)
	}
	cancel()

	select {
	case _, ok := <-ch:
		for ok {
			_, ok = <-ch
		}
	case <-time.After(5 * time.Second):
		t.Fatal("browse channel not closed after cancel")
	}
}
