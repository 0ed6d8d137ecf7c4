package main

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/vpnclient/pppsession/ppp"
)

// streamTransport adapts a plain TCP connection to the non-blocking
// ppp.Transport contract by driving its raw socket directly, in the
// same style as the reference control-plane adapter: a read or write
// that returns EAGAIN/EWOULDBLOCK is reported as ppp.ErrWouldBlock
// rather than as a connection error.
//
// The session engine itself is transport-agnostic; a production
// deployment would dial through a TLS or DTLS tunnel and hand the
// resulting encrypted stream to a transport shaped exactly like this
// one. That tunnel is out of scope here, so this adapter talks
// directly to the peer's TCP socket, standing in for it.
type streamTransport struct {
	conn *net.TCPConn
	rc   syscall.RawConn
}

func dialStream(peer string) (*streamTransport, error) {
	addr, err := net.ResolveTCPAddr("tcp", peer)
	if err != nil {
		return nil, err
	}
	conn, err := net.DialTCP("tcp", nil, addr)
	if err != nil {
		return nil, err
	}
	rc, err := conn.SyscallConn()
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &streamTransport{conn: conn, rc: rc}, nil
}

func (t *streamTransport) Read(buf []byte) (n int, err error) {
	cerr := t.rc.Read(func(fd uintptr) bool {
		n, err = unix.Read(int(fd), buf)
		return err != unix.EAGAIN && err != unix.EWOULDBLOCK
	})
	if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
		return 0, ppp.ErrWouldBlock
	}
	if err != nil {
		return n, err
	}
	return n, cerr
}

func (t *streamTransport) Write(buf []byte) (n int, err error) {
	cerr := t.rc.Write(func(fd uintptr) bool {
		n, err = unix.Write(int(fd), buf)
		return err != unix.EAGAIN && err != unix.EWOULDBLOCK
	})
	if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
		return 0, ppp.ErrWouldBlock
	}
	if err != nil {
		return n, err
	}
	return n, cerr
}

func (t *streamTransport) Close() error {
	return t.conn.Close()
}
