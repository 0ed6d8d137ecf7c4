package ppp

import (
	"fmt"
	"net"
)

func (c Code) String() string {
	switch c {
	case CodeConfigureRequest:
		return "configure-request"
	case CodeConfigureAck:
		return "configure-ack"
	case CodeConfigureNak:
		return "configure-nak"
	case CodeConfigureReject:
		return "configure-reject"
	case CodeTerminateRequest:
		return "terminate-request"
	case CodeTerminateAck:
		return "terminate-ack"
	case CodeCodeReject:
		return "code-reject"
	case CodeProtocolReject:
		return "protocol-reject"
	case CodeEchoRequest:
		return "echo-request"
	case CodeEchoReply:
		return "echo-reply"
	case CodeDiscardRequest:
		return "discard-request"
	}
	return fmt.Sprintf("code(%d)", uint8(c))
}

func (p Proto) String() string {
	switch p {
	case ProtoIPv4:
		return "ipv4"
	case ProtoIPv6:
		return "ipv6"
	case ProtoLCP:
		return "lcp"
	case ProtoIPCP:
		return "ipcp"
	case ProtoIP6CP:
		return "ip6cp"
	}
	return fmt.Sprintf("proto(%#x)", uint16(p))
}

func ipv4String(b [4]byte) string {
	return net.IPv4(b[0], b[1], b[2], b[3]).String()
}

// ipv6LinkLocalInterfaceID derives the lower 64 bits of a host IPv6
// address, for use as an IP6CP interface-identifier option value.
func ipv6LinkLocalInterfaceID(ip net.IP) (id [8]byte) {
	ip16 := ip.To16()
	if ip16 == nil {
		return id
	}
	copy(id[:], ip16[8:16])
	return id
}

// ipv6LinkLocalString formats a peer-supplied interface identifier as
// an fe80::/64 link-local address string.
func ipv6LinkLocalString(id [8]byte) string {
	ip := make(net.IP, 16)
	ip[0] = 0xfe
	ip[1] = 0x80
	copy(ip[8:], id[:])
	return ip.String()
}
