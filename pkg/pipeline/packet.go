// Package pipeline implements the single-threaded, cooperative,
// non-blocking forwarding engine: receive, admit through loss and
// latency, serialize through a bandwidth-limited virtual link, corrupt,
// and send.
package pipeline

import (
	"math/rand"
	"time"

	"netimpair/pkg/netpeer"
)

// Packet is an owned, non-aliased unit moving through the pipeline:
// payload bytes, the address it should be forwarded to, and its
// earliest-send time (zero until it is admitted into the latency
// queue).
type Packet struct {
	Payload []byte
	Forward netpeer.Addr
	Time    time.Time
}

// Corrupt applies k independent single-bit flips to p.Payload using
// rng. Each flip picks a uniformly random byte index and bit position;
// successive flips may hit the same bit, since corruptions are
// independent draws, not distinct positions. A zero-length payload has
// no byte to flip and is left untouched.
func (p *Packet) Corrupt(rng *rand.Rand, k int) {
	n := len(p.Payload)
	if n == 0 {
		return
	}
	for i := 0; i < k; i++ {
		byteIdx := rng.Intn(n)
		bit := rng.Intn(8)
		p.Payload[byteIdx] ^= 1 << uint(bit)
	}
}

// receiveBag is the unordered multiset of packets awaiting admission.
// Draws are by uniform random index; removal is swap-with-last-then-pop
// to keep the remove O(1) and reproduce the source's reordering
// statistics exactly.
type receiveBag struct {
	items []*Packet
}

func (b *receiveBag) push(p *Packet) {
	b.items = append(b.items, p)
}

func (b *receiveBag) len() int { return len(b.items) }

// popRandom removes and returns a uniformly random element.
func (b *receiveBag) popRandom(rng *rand.Rand) *Packet {
	n := len(b.items)
	i := rng.Intn(n)
	p := b.items[i]
	b.items[i] = b.items[n-1]
	b.items = b.items[:n-1]
	return p
}

// sendBag is the LIFO stack of packets cleared for transmission.
type sendBag struct {
	items []*Packet
}

func (s *sendBag) push(p *Packet) {
	s.items = append(s.items, p)
}

func (s *sendBag) len() int { return len(s.items) }

// peekLast returns the packet at the tail without removing it.
func (s *sendBag) peekLast() *Packet {
	return s.items[len(s.items)-1]
}

// popLast removes and returns the packet at the tail.
func (s *sendBag) popLast() *Packet {
	n := len(s.items)
	p := s.items[n-1]
	s.items = s.items[:n-1]
	return p
}
