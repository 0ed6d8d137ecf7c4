/*
Package config implements a parser for PPP session configuration
represented in the TOML format: https://github.com/toml-lang/toml.

Sessions are called out in the configuration file using named TOML
tables. Each session table contains configuration parameters for that
instance as key:value pairs.

	# This is a session instance named "office"
	[session.office]

	# peer specifies the address of the TLS-tunneled peer this session
	# connects to.
	peer = "vpn.example.com:4433"

	# encap selects the outer framing applied to every PPP frame.
	# Currently supported values are "f5" and "f5_hdlc".
	encap = "f5"

	# want_ipv4 and want_ipv6 select which network control protocols
	# the session brings up once LCP is open. At least one must be true.
	want_ipv4 = true
	want_ipv6 = false

	# mtu overrides the MTU advertised in the outgoing LCP
	# Configure-Request. If unset a sensible default is used.
	mtu = 1400

	# local_ipv4 and local_ipv6, if set, are hints the session offers the
	# peer during IPCP/IP6CP negotiation rather than addresses assigned
	# by the peer.
	local_ipv4 = "10.8.0.2"
	local_ipv6 = "fe80::1"

	# keepalive_interval, if set, enables periodic LCP Discard-Request
	# keepalives while the session is idle.
	keepalive_interval = 30000 # milliseconds

	# dpd_timeout, if set, enables dead-peer-detection: an LCP
	# Echo-Request is sent after this many milliseconds without any
	# received traffic, and the session is torn down if no reply or
	# other traffic arrives within a further interval of the same length.
	dpd_timeout = 10000 # milliseconds
*/
package config

import (
	"fmt"
	"net"
	"time"

	"github.com/pelletier/go-toml"
	"github.com/vpnclient/pppsession/ppp"
)

// Config contains PPP session configuration for every session instance
// defined in a configuration file.
type Config struct {
	// The entire tree as a map as parsed from the TOML representation.
	// Apps may access this tree to handle their own config tables.
	Map map[string]interface{}
	// All the sessions defined in the configuration.
	Sessions []NamedSession
}

// NamedSession contains PPP session configuration for a session
// instance, plus the host-side parameters (peer address, keepalive and
// DPD tunables) the session engine itself doesn't own.
type NamedSession struct {
	// The session's name as specified in the config file.
	Name string
	// Peer is the address the session's transport should connect to.
	Peer string
	// Session is the ppp package configuration for this instance.
	Session ppp.Config
	// KeepaliveInterval, if non-zero, is the idle interval after which
	// an LCP Discard-Request keepalive is sent.
	KeepaliveInterval time.Duration
	// DPDTimeout, if non-zero, is the idle interval after which dead
	// peer detection begins probing with LCP Echo-Requests.
	DPDTimeout time.Duration
}

func toBool(v interface{}) (bool, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	return false, fmt.Errorf("supplied value could not be parsed as a bool")
}

// go-toml's ToMap function represents numbers as either uint64 or int64.
// So when we are converting numbers, we need to figure out which one it
// has picked and range check to ensure that the number from the config
// fits within the range of the destination type.
func toUint16(v interface{}) (uint16, error) {
	if b, ok := v.(int64); ok {
		if b < 0x0 || b > 0xffff {
			return 0, fmt.Errorf("value %x out of range", b)
		}
		return uint16(b), nil
	} else if b, ok := v.(uint64); ok {
		if b > 0xffff {
			return 0, fmt.Errorf("value %x out of range", b)
		}
		return uint16(b), nil
	}
	return 0, fmt.Errorf("unexpected %T value %v", v, v)
}

func toUint32(v interface{}) (uint32, error) {
	if b, ok := v.(int64); ok {
		if b < 0x0 || b > 0xffffffff {
			return 0, fmt.Errorf("value %x out of range", b)
		}
		return uint32(b), nil
	} else if b, ok := v.(uint64); ok {
		if b > 0xffffffff {
			return 0, fmt.Errorf("value %x out of range", b)
		}
		return uint32(b), nil
	}
	return 0, fmt.Errorf("unexpected %T value %v", v, v)
}

func toString(v interface{}) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	return "", fmt.Errorf("supplied value could not be parsed as a string")
}

func toDurationMs(v interface{}) (time.Duration, error) {
	u, err := toUint32(v)
	return time.Duration(u) * time.Millisecond, err
}

func toEncapType(v interface{}) (ppp.EncapType, error) {
	s, err := toString(v)
	if err == nil {
		switch s {
		case "f5":
			return ppp.EncapF5, nil
		case "f5_hdlc":
			return ppp.EncapF5HDLC, nil
		}
		return 0, fmt.Errorf("expect 'f5' or 'f5_hdlc'")
	}
	return 0, err
}

func toIP(v interface{}) (net.IP, error) {
	s, err := toString(v)
	if err != nil {
		return nil, err
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return nil, fmt.Errorf("invalid IP address %q", s)
	}
	return ip, nil
}

func newSessionConfig(name string, scfg map[string]interface{}) (*NamedSession, error) {
	ns := &NamedSession{
		Name: name,
		Session: ppp.Config{
			Encap: ppp.EncapF5,
		},
	}
	for k, v := range scfg {
		var err error
		switch k {
		case "peer":
			ns.Peer, err = toString(v)
		case "encap":
			ns.Session.Encap, err = toEncapType(v)
		case "want_ipv4":
			ns.Session.WantIPv4, err = toBool(v)
		case "want_ipv6":
			ns.Session.WantIPv6, err = toBool(v)
		case "mtu":
			ns.Session.LocalMTU, err = toUint16(v)
		case "local_ipv4":
			ns.Session.LocalIPv4, err = toIP(v)
		case "local_ipv6":
			ns.Session.LocalIPv6, err = toIP(v)
		case "keepalive_interval":
			ns.KeepaliveInterval, err = toDurationMs(v)
		case "dpd_timeout":
			ns.DPDTimeout, err = toDurationMs(v)
		default:
			return nil, fmt.Errorf("unrecognised parameter '%v'", k)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to process %v: %v", k, err)
		}
	}
	if ns.Peer == "" {
		return nil, fmt.Errorf("session %v: 'peer' is required", name)
	}
	if !ns.Session.WantIPv4 && !ns.Session.WantIPv6 {
		return nil, fmt.Errorf("session %v: at least one of want_ipv4/want_ipv6 must be true", name)
	}
	return ns, nil
}

func (cfg *Config) loadSessions() error {
	var sessions map[string]interface{}

	if got, ok := cfg.Map["session"]; ok {
		sessions, ok = got.(map[string]interface{})
		if !ok {
			return fmt.Errorf("session instances must be named, e.g. '[session.myconn]'")
		}
	} else {
		return fmt.Errorf("no session table present")
	}

	for name, got := range sessions {
		smap, ok := got.(map[string]interface{})
		if !ok {
			return fmt.Errorf("session instances must be named, e.g. '[session.myconn]'")
		}
		ns, err := newSessionConfig(name, smap)
		if err != nil {
			return fmt.Errorf("session %v: %v", name, err)
		}
		cfg.Sessions = append(cfg.Sessions, *ns)
	}
	return nil
}

func newConfig(tree *toml.Tree) (*Config, error) {
	cfg := &Config{Map: tree.ToMap()}
	if err := cfg.loadSessions(); err != nil {
		return nil, fmt.Errorf("failed to parse sessions: %v", err)
	}
	return cfg, nil
}

// LoadFile loads configuration from the specified file.
func LoadFile(path string) (*Config, error) {
	tree, err := toml.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %v", err)
	}
	return newConfig(tree)
}

// LoadString loads configuration from the specified string.
func LoadString(content string) (*Config, error) {
	tree, err := toml.Load(content)
	if err != nil {
		return nil, fmt.Errorf("failed to load config string: %v", err)
	}
	return newConfig(tree)
}
