package ppp

import (
	"time"

	"github.com/go-kit/kit/log/level"
)

// phaseTransition is one row of the session phase table, structurally
// adapted from a classic table-driven FSM: scan for the first row whose
// "from" matches the current phase and whose guard holds, run its
// action, and move to "to". Unlike an event-driven FSM, guards here are
// polled every tick rather than fired by named external events, since
// most of the table concerns internal timer expiry rather than
// messages (the received-Terminate-Request/Ack transitions are handled
// directly in dispatchCtl instead, as a transition available from any
// phase).
type phaseTransition struct {
	from  Phase
	guard func(*Session, time.Time) bool
	action func(*Session, time.Time)
	to    Phase
}

var phaseTable = []phaseTransition{
	{
		from:  PhaseDead,
		guard: func(*Session, time.Time) bool { return true },
		action: func(s *Session, now time.Time) {
			s.enqueueConfigureRequest(kindLCP, now)
		},
		to: PhaseEstablish,
	},
	{
		from:  PhaseEstablish,
		guard: func(s *Session, _ time.Time) bool { return s.LCP.IsOpen() },
		action: func(s *Session, now time.Time) {
			if s.cfg.WantIPv4 {
				s.enqueueConfigureRequest(kindIPCP, now)
			}
			if s.cfg.WantIPv6 {
				s.enqueueConfigureRequest(kindIP6CP, now)
			}
		},
		to: PhaseOpened,
	},
	{
		from: PhaseEstablish,
		guard: func(s *Session, now time.Time) bool {
			return !s.LCP.IsOpen() && s.LCP.retransmitDue(now)
		},
		action: func(s *Session, now time.Time) {
			s.enqueueConfigureRequest(kindLCP, now)
		},
		to: PhaseEstablish,
	},
	{
		from:  PhaseOpened,
		guard: func(s *Session, _ time.Time) bool { return s.allRequestedNCPsOpen() },
		to:    PhaseNetwork,
	},
	{
		from: PhaseOpened,
		guard: func(s *Session, now time.Time) bool {
			return (s.cfg.WantIPv4 && !s.IPCP.IsOpen() && s.IPCP.retransmitDue(now)) ||
				(s.cfg.WantIPv6 && !s.IP6CP.IsOpen() && s.IP6CP.retransmitDue(now))
		},
		action: func(s *Session, now time.Time) {
			if s.cfg.WantIPv4 && !s.IPCP.IsOpen() && s.IPCP.retransmitDue(now) {
				s.enqueueConfigureRequest(kindIPCP, now)
			}
			if s.cfg.WantIPv6 && !s.IP6CP.IsOpen() && s.IP6CP.retransmitDue(now) {
				s.enqueueConfigureRequest(kindIP6CP, now)
			}
		},
		to: PhaseOpened,
	},
}

// pendingCtl is a control packet the phase table has decided to send,
// queued here so advance() stays free of direct queue access and
// Mainloop can drain it onto the host's control queue.
type pendingCtl struct {
	proto Proto
	pkt   *ctlPacket
}

func (s *Session) enqueueConfigureRequest(kind protoKind, now time.Time) {
	ncp := s.ncpFor(kind)
	if ncp.exhausted() {
		s.fail(KindProtocolViolation, "negotiation did not converge", nil)
		return
	}
	retransmit := ncp.reqsSent
	pkt := s.buildConfigureRequest(now, kind)
	s.pendingCtlOut = append(s.pendingCtlOut, pendingCtl{proto: protoFor(kind), pkt: pkt})
	if retransmit {
		s.metrics.Retransmits++
	}
}

func protoFor(kind protoKind) Proto {
	switch kind {
	case kindLCP:
		return ProtoLCP
	case kindIPCP:
		return ProtoIPCP
	default:
		return ProtoIP6CP
	}
}

// advance evaluates the phase table against now, potentially walking
// through several phases in one call if every guard along the way is
// already satisfied (e.g. DEAD straight through to OPENED when LCP was
// somehow already negotiated).
func (s *Session) advance(now time.Time) {
	for step := 0; step < maxPhaseSteps; step++ {
		if s.Phase == PhaseAuthenticate {
			s.fail(KindProtocolViolation, "unexpected state", nil)
			return
		}
		if s.Phase == PhaseTerminate || s.Phase == PhaseNetwork {
			return
		}

		moved := false
		for _, t := range phaseTable {
			if t.from != s.Phase || !t.guard(s, now) {
				continue
			}
			if t.action != nil {
				t.action(s, now)
			}
			if s.Phase == PhaseTerminate {
				return
			}
			if t.to != s.Phase {
				level.Debug(s.logger).Log("message", "ppp phase transition", "from", s.Phase.String(), "to", t.to.String())
				s.Phase = t.to
				moved = true
			}
			break
		}
		if !moved {
			return
		}
	}
}
