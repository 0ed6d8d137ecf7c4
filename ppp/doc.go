/*
Package ppp implements the link-layer and network-control-protocol state
machines needed to run a PPP session over an already-established secure
transport, such as the TLS stream used by an SSL VPN client.

Package ppp owns:

  - the PPP and NCP (LCP, IPCP, IP6CP) negotiation state machines,
  - PPP frame encapsulation and decapsulation, including the optional
    HDLC-style byte stuffing and the address/control/protocol field
    compressions a peer may request, and
  - the mainloop that drives negotiation, keepalives, dead-peer
    detection, and bidirectional packet transfer between the transport
    and the caller's IP packet queues.

The package does not implement the transport itself (TLS/DTLS), the
authentication handshake that precedes PPP, tun/utun device I/O, or
route/DNS installation: those are owned by the host application and
consumed here only through the small interfaces in interfaces.go.

Usage

	sess := ppp.NewSession(ppp.Config{Encap: ppp.EncapF5, WantIPv4: true}, nil)
	host := &ppp.Host{Transport: transport, Control: control,
		OutgoingIP: outgoingIP, IncomingIP: incomingIP}

	for {
		timeout := defaultPollTimeout
		status, err := sess.Mainloop(time.Now(), readable, &timeout, host)
		if err != nil {
			log.Printf("ppp session failed: %v", err)
		}
		if status == ppp.StatusFinished {
			break
		}
		// block on transport readability/writability for up to timeout
	}
*/
package ppp
