package main

import "github.com/vpnclient/pppsession/ppp"

// packetQueue is a simple unbounded FIFO satisfying ppp.Queue. Real
// deployments would want a bound and a drop policy on the IP data
// queues; left unbounded here since this binary exists to demonstrate
// the session engine rather than to run as a production gateway.
type packetQueue struct {
	items []*ppp.Packet
}

func (q *packetQueue) Enqueue(p *ppp.Packet) { q.items = append(q.items, p) }

func (q *packetQueue) Dequeue() *ppp.Packet {
	if len(q.items) == 0 {
		return nil
	}
	p := q.items[0]
	q.items = q.items[1:]
	return p
}

func (q *packetQueue) Empty() bool { return len(q.items) == 0 }
