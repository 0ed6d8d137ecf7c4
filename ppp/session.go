package ppp

import (
	"crypto/rand"
	"encoding/binary"
	"net"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

// Phase is the overall PPP session phase. AUTHENTICATE is reserved by
// the protocol but never entered by this engine: the transport is
// assumed to have already authenticated the peer.
type Phase int

const (
	PhaseDead Phase = iota
	PhaseEstablish
	PhaseAuthenticate
	PhaseOpened
	PhaseNetwork
	PhaseTerminate
)

func (p Phase) String() string {
	switch p {
	case PhaseDead:
		return "dead"
	case PhaseEstablish:
		return "establish"
	case PhaseAuthenticate:
		return "authenticate"
	case PhaseOpened:
		return "opened"
	case PhaseNetwork:
		return "network"
	case PhaseTerminate:
		return "terminate"
	}
	return "unknown"
}

// Config carries the host-supplied, session-lifetime parameters that
// influence negotiation: which network protocols to bring up, and any
// addressing/MTU hints the host already knows about.
type Config struct {
	Encap     EncapType
	WantIPv4  bool
	WantIPv6  bool
	LocalMTU  uint16 // 0 selects defaultMTU
	LocalIPv4 net.IP // desired local IPv4 address, or nil
	LocalIPv6 net.IP // desired local IPv6 address, interface ID derived from it, or nil
}

// incomingParams are the peer-supplied parameters learned during
// negotiation, named "in_*" in the data model.
type incomingParams struct {
	pppHdrSize   int
	asyncmap     uint32
	lcpOpts      LCPOpts
	lcpMagic     [4]byte
	peerAddr     [4]byte
	ipv6IntIdent [8]byte
}

// outgoingParams are the parameters this side advertises, named
// "out_*" in the data model.
type outgoingParams struct {
	asyncmap     uint32
	lcpOpts      LCPOpts
	lcpMagic     [4]byte
	peerAddr     [4]byte
	ipv6IntIdent [8]byte
	utilID       uint8
}

// Session is a single PPP session over an already-established secure
// transport. It is mutated only from within Mainloop: the engine is
// single-threaded with respect to session state.
type Session struct {
	logger log.Logger
	cfg    Config

	Phase Phase

	LCP   NCP
	IPCP  NCP
	IP6CP NCP

	in  incomingParams
	out outgoingParams

	IPInfo IPInfo

	lastRx time.Time

	// quitReason and quitKind are populated on fatal termination or
	// peer-initiated close, for the host to surface to the user.
	quitReason string
	quitKind   Kind

	// pendingWrite is the packet retained after a partial transport
	// write, to be retried verbatim before anything else is sent.
	pendingWrite *Packet
	wantWrite    bool

	// pendingCtlOut accumulates the Configure-Requests the phase table
	// has decided to send; Mainloop drains it onto the host's control
	// queue right after advance.
	pendingCtlOut []pendingCtl

	metrics Metrics
}

// NewSession creates a session in the DEAD phase. The host drives it
// forward by calling Mainloop.
func NewSession(cfg Config, logger log.Logger) *Session {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	s := &Session{
		logger: logger,
		cfg:    cfg,
		Phase:  PhaseDead,
	}
	s.in.pppHdrSize = 4
	s.out.lcpMagic = randomMagic()
	if cfg.LocalIPv4 != nil {
		copy(s.out.peerAddr[:], cfg.LocalIPv4.To4())
	}
	if cfg.LocalIPv6 != nil {
		s.out.ipv6IntIdent = ipv6LinkLocalInterfaceID(cfg.LocalIPv6)
	}
	if cfg.LocalMTU != 0 {
		s.IPInfo.MTU = cfg.LocalMTU
	} else {
		s.IPInfo.MTU = defaultMTU
	}
	return s
}

func randomMagic() (m [4]byte) {
	// A session talks to exactly one peer for its lifetime, so a
	// cryptographically strong magic number isn't required; rand.Read
	// just needs to avoid picking zero or a value likely to collide
	// with a peer that also sends first.
	if _, err := rand.Read(m[:]); err != nil {
		binary.BigEndian.PutUint32(m[:], 0x5a5a5a5a)
	}
	if m == ([4]byte{}) {
		m[3] = 1
	}
	return m
}

// chooseOutgoingMagic applies the invariant that out_lcp_magic must
// differ from in_lcp_magic: once the peer's magic is known, ours is
// its bitwise complement.
func (s *Session) chooseOutgoingMagic() {
	var complement [4]byte
	for i, b := range s.in.lcpMagic {
		complement[i] = ^b
	}
	s.out.lcpMagic = complement
}

// QuitReason returns the reason the session terminated, if any.
func (s *Session) QuitReason() string { return s.quitReason }

// WantWrite reports whether the host should register interest in
// transport writability, because a previous write was partial.
func (s *Session) WantWrite() bool { return s.wantWrite }

func (s *Session) fail(kind Kind, reason string, cause error) *Error {
	e := &Error{Kind: kind, Reason: reason, Err: cause}
	if s.quitReason == "" {
		s.quitReason = e.Error()
		s.quitKind = kind
	}
	level.Error(s.logger).Log("message", "ppp session failure", "kind", kind.String(), "reason", reason, "err", cause)
	s.Phase = PhaseTerminate
	return e
}

// quit records the reason a graceful (non-error) termination is taking
// place, without overriding a reason already set by fail.
func (s *Session) quit(kind Kind, reason string) {
	if s.quitReason == "" {
		s.quitReason = reason
		s.quitKind = kind
	}
}

// allRequestedNCPsOpen reports whether every NCP the host asked for is
// open. The session may reach NETWORK only once this holds and LCP
// itself is open.
func (s *Session) allRequestedNCPsOpen() bool {
	if s.cfg.WantIPv4 && !s.IPCP.IsOpen() {
		return false
	}
	if s.cfg.WantIPv6 && !s.IP6CP.IsOpen() {
		return false
	}
	return true
}
