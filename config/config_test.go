package config

import (
	"net"
	"testing"
	"time"

	"github.com/vpnclient/pppsession/ppp"
)

func TestLoadStringSessions(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want map[string]NamedSession
	}{
		{
			name: "single session with defaults",
			in: `[session.office]
				 peer = "vpn.example.com:4433"
				 want_ipv4 = true
				 `,
			want: map[string]NamedSession{
				"office": {
					Name: "office",
					Peer: "vpn.example.com:4433",
					Session: ppp.Config{
						Encap:    ppp.EncapF5,
						WantIPv4: true,
					},
				},
			},
		},
		{
			name: "two sessions with full options",
			in: `[session.a]
				 peer = "10.0.0.1:4433"
				 encap = "f5_hdlc"
				 want_ipv4 = true
				 want_ipv6 = true
				 mtu = 1400
				 local_ipv4 = "10.8.0.2"
				 local_ipv6 = "fe80::1"
				 keepalive_interval = 30000
				 dpd_timeout = 10000

				 [session.b]
				 peer = "[2001:db8::1]:4433"
				 want_ipv6 = true
				 `,
			want: map[string]NamedSession{
				"a": {
					Name: "a",
					Peer: "10.0.0.1:4433",
					Session: ppp.Config{
						Encap:     ppp.EncapF5HDLC,
						WantIPv4:  true,
						WantIPv6:  true,
						LocalMTU:  1400,
						LocalIPv4: net.ParseIP("10.8.0.2"),
						LocalIPv6: net.ParseIP("fe80::1"),
					},
					KeepaliveInterval: 30 * time.Second,
					DPDTimeout:        10 * time.Second,
				},
				"b": {
					Name: "b",
					Peer: "[2001:db8::1]:4433",
					Session: ppp.Config{
						Encap:    ppp.EncapF5,
						WantIPv6: true,
					},
				},
			},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg, err := LoadString(c.in)
			if err != nil {
				t.Fatalf("LoadString: %v", err)
			}
			if len(cfg.Sessions) != len(c.want) {
				t.Fatalf("got %d sessions, want %d", len(cfg.Sessions), len(c.want))
			}
			for _, got := range cfg.Sessions {
				want, ok := c.want[got.Name]
				if !ok {
					t.Fatalf("unexpected session %q", got.Name)
				}
				if got.Peer != want.Peer {
					t.Errorf("session %q: got peer %q want %q", got.Name, got.Peer, want.Peer)
				}
				if got.Session.Encap != want.Session.Encap {
					t.Errorf("session %q: got encap %v want %v", got.Name, got.Session.Encap, want.Session.Encap)
				}
				if got.Session.WantIPv4 != want.Session.WantIPv4 || got.Session.WantIPv6 != want.Session.WantIPv6 {
					t.Errorf("session %q: got want_ipv4/6 %v/%v want %v/%v",
						got.Name, got.Session.WantIPv4, got.Session.WantIPv6, want.Session.WantIPv4, want.Session.WantIPv6)
				}
				if got.Session.LocalMTU != want.Session.LocalMTU {
					t.Errorf("session %q: got mtu %d want %d", got.Name, got.Session.LocalMTU, want.Session.LocalMTU)
				}
				if !got.Session.LocalIPv4.Equal(want.Session.LocalIPv4) {
					t.Errorf("session %q: got local_ipv4 %v want %v", got.Name, got.Session.LocalIPv4, want.Session.LocalIPv4)
				}
				if !got.Session.LocalIPv6.Equal(want.Session.LocalIPv6) {
					t.Errorf("session %q: got local_ipv6 %v want %v", got.Name, got.Session.LocalIPv6, want.Session.LocalIPv6)
				}
				if got.KeepaliveInterval != want.KeepaliveInterval {
					t.Errorf("session %q: got keepalive_interval %v want %v", got.Name, got.KeepaliveInterval, want.KeepaliveInterval)
				}
				if got.DPDTimeout != want.DPDTimeout {
					t.Errorf("session %q: got dpd_timeout %v want %v", got.Name, got.DPDTimeout, want.DPDTimeout)
				}
			}
		})
	}
}

func TestLoadStringRejectsMissingPeer(t *testing.T) {
	_, err := LoadString(`[session.bad]
		want_ipv4 = true
		`)
	if err == nil {
		t.Fatal("expected an error for a session missing 'peer'")
	}
}

func TestLoadStringRejectsNoWantedProtocol(t *testing.T) {
	_, err := LoadString(`[session.bad]
		peer = "10.0.0.1:4433"
		`)
	if err == nil {
		t.Fatal("expected an error for a session with neither want_ipv4 nor want_ipv6")
	}
}

func TestLoadStringRejectsUnrecognisedParameter(t *testing.T) {
	_, err := LoadString(`[session.bad]
		peer = "10.0.0.1:4433"
		want_ipv4 = true
		bogus = 1
		`)
	if err == nil {
		t.Fatal("expected an error for an unrecognised parameter")
	}
}
