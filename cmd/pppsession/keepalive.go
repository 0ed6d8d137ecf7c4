package main

import (
	"time"

	"github.com/vpnclient/pppsession/ppp"
)

// idleKeepalive implements ppp.KeepaliveTracker: it sends an LCP
// keepalive after keepaliveInterval of silence, and escalates to dead
// peer detection after dpdTimeout, declaring the peer dead after a
// further dpdTimeout without any traffic at all.
type idleKeepalive struct {
	keepaliveInterval time.Duration
	dpdTimeout        time.Duration

	lastActivity  time.Time
	lastKeepalive time.Time
	dpdStarted    time.Time
	dpdActive     bool
}

func newIdleKeepalive(keepaliveInterval, dpdTimeout time.Duration, now time.Time) *idleKeepalive {
	return &idleKeepalive{
		keepaliveInterval: keepaliveInterval,
		dpdTimeout:        dpdTimeout,
		lastActivity:      now,
	}
}

// touch records that traffic was observed at now, for the host to call
// whenever Session.Mainloop makes read progress.
func (k *idleKeepalive) touch(now time.Time) {
	k.lastActivity = now
	k.dpdActive = false
}

func (k *idleKeepalive) Action(now time.Time, timeout *time.Duration) ppp.KeepaliveAction {
	idle := now.Sub(k.lastActivity)

	if k.dpdTimeout > 0 {
		if k.dpdActive {
			if now.Sub(k.dpdStarted) >= k.dpdTimeout {
				return ppp.KeepaliveDPDDead
			}
			shrinkTimeout(timeout, k.dpdTimeout-now.Sub(k.dpdStarted))
			return ppp.KeepaliveNone
		}
		if idle >= k.dpdTimeout {
			k.dpdActive = true
			k.dpdStarted = now
			return ppp.KeepaliveDPD
		}
		shrinkTimeout(timeout, k.dpdTimeout-idle)
	}

	if k.keepaliveInterval > 0 {
		since := idle
		if k.lastKeepalive.After(k.lastActivity) {
			since = now.Sub(k.lastKeepalive)
		}
		if since >= k.keepaliveInterval {
			k.lastKeepalive = now
			return ppp.KeepaliveKeepalive
		}
		shrinkTimeout(timeout, k.keepaliveInterval-since)
	}
	return ppp.KeepaliveNone
}

func shrinkTimeout(timeout *time.Duration, candidate time.Duration) {
	if timeout == nil || candidate < 0 {
		return
	}
	if *timeout == 0 || candidate < *timeout {
		*timeout = candidate
	}
}
