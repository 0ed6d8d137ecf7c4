/*
The pppsession command establishes a single PPP session with a peer
and brings up the negotiated network interface's addressing
information.

pppsession is driven by a configuration file which describes the
session instances available to run; see package config's documentation
for the file format. -session selects the session to run by name.
Without it, one of the defined sessions is run; when the file defines
more than one, which of them is not defined.

This binary exists to demonstrate package ppp end to end: it dials a
plain TCP connection to the configured peer in place of the TLS/DTLS
tunnel a production deployment would use, and it does not attach the
negotiated IP addresses to a kernel network interface, it only logs
them. No IP data is sent: nothing feeds the outgoing IP queue, and IP
packets received from the peer are queued but never consumed.
*/
package main

import (
	"flag"
	stdlog "log"
	"os"
	"os/signal"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"golang.org/x/sys/unix"

	"github.com/vpnclient/pppsession/config"
	"github.com/vpnclient/pppsession/ppp"
)

type application struct {
	logger    log.Logger
	session   *ppp.Session
	host      *ppp.Host
	keepalive *idleKeepalive
	transport *streamTransport
	sigChan   chan os.Signal
}

func newApplication(ns *config.NamedSession, verbose bool) (*application, error) {
	logger := log.NewLogfmtLogger(os.Stderr)
	if verbose {
		logger = level.NewFilter(logger, level.AllowDebug())
	} else {
		logger = level.NewFilter(logger, level.AllowInfo())
	}

	transport, err := dialStream(ns.Peer)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	keepalive := newIdleKeepalive(ns.KeepaliveInterval, ns.DPDTimeout, now)
	session := ppp.NewSession(ns.Session, logger)

	host := &ppp.Host{
		Transport:  transport,
		Control:    &packetQueue{},
		OutgoingIP: &packetQueue{},
		IncomingIP: &packetQueue{},
		Keepalive:  keepalive,
	}

	app := &application{
		logger:    logger,
		session:   session,
		host:      host,
		keepalive: keepalive,
		transport: transport,
		sigChan:   make(chan os.Signal, 1),
	}
	signal.Notify(app.sigChan, unix.SIGINT, unix.SIGTERM)
	return app, nil
}

// run drives the session's mainloop until it terminates or a signal
// requests shutdown, logging network parameters as they're learned.
func (app *application) run() int {
	const pollInterval = 20 * time.Millisecond

	reportedIPv4 := ""
	reportedIPv6 := ""

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-app.sigChan:
			level.Info(app.logger).Log("message", "received signal, closing transport")
			app.transport.Close()
			return 0

		case now := <-ticker.C:
			before := app.session.Metrics().FramesRead
			timeout := pollInterval
			status, err := app.session.Mainloop(now, true, &timeout, app.host)
			if app.session.Metrics().FramesRead != before {
				app.keepalive.touch(now)
			}

			if app.session.IPInfo.IPv4Addr != reportedIPv4 {
				reportedIPv4 = app.session.IPInfo.IPv4Addr
				level.Info(app.logger).Log("message", "ipv4 address negotiated", "address", reportedIPv4)
			}
			if app.session.IPInfo.IPv6Addr != reportedIPv6 {
				reportedIPv6 = app.session.IPInfo.IPv6Addr
				level.Info(app.logger).Log("message", "ipv6 address negotiated", "address", reportedIPv6)
			}

			if status == ppp.StatusFinished {
				if err != nil {
					level.Error(app.logger).Log("message", "session terminated", "reason", app.session.QuitReason(), "error", err)
					app.transport.Close()
					return 1
				}
				level.Info(app.logger).Log("message", "session terminated", "reason", app.session.QuitReason())
				app.transport.Close()
				return 0
			}
			if err != nil {
				level.Error(app.logger).Log("message", "mainloop error", "error", err)
			}
		}
	}
}

func main() {
	cfgPathPtr := flag.String("config", "/etc/pppsession/pppsession.toml", "specify configuration file path")
	sessionPtr := flag.String("session", "", "name of the session to run, defaults to one of the defined sessions")
	verbosePtr := flag.Bool("verbose", false, "toggle verbose log output")
	flag.Parse()

	cfg, err := config.LoadFile(*cfgPathPtr)
	if err != nil {
		stdlog.Fatalf("failed to load configuration: %v", err)
	}
	if len(cfg.Sessions) == 0 {
		stdlog.Fatalf("no sessions defined in %s", *cfgPathPtr)
	}

	ns := &cfg.Sessions[0]
	if *sessionPtr != "" {
		ns = nil
		for i := range cfg.Sessions {
			if cfg.Sessions[i].Name == *sessionPtr {
				ns = &cfg.Sessions[i]
				break
			}
		}
		if ns == nil {
			stdlog.Fatalf("no session named %q in %s", *sessionPtr, *cfgPathPtr)
		}
	}

	app, err := newApplication(ns, *verbosePtr)
	if err != nil {
		stdlog.Fatalf("failed to instantiate application: %v", err)
	}

	os.Exit(app.run())
}
