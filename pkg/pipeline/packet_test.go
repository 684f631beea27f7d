package pipeline

import (
	"math/rand"
	"testing"
)

func TestCorruptFlipsAtMostRequestedBitCount(t *testing.T) {
	p := &Packet{Payload: []byte{0, 0, 0, 0}}
	rng := rand.New(rand.NewSource(1))
	p.Corrupt(rng, 3)

	total := 0
	for _, b := range p.Payload {
		for i := 0; i < 8; i++ {
			if b&(1<<uint(i)) != 0 {
				total++
			}
		}
	}
	if total == 0 {
		t.Fatalf("expected at least one bit set after corrupting with k=3")
	}
	if total > 3 {
		t.Fatalf("got %d bits set, want at most 3 (some flips may cancel)", total)
	}
}

func TestCorruptZeroLengthPayloadIsNoOp(t *testing.T) {
	p := &Packet{Payload: []byte{}}
	rng := rand.New(rand.NewSource(1))
	p.Corrupt(rng, 5) // must not panic or index out of range
	if len(p.Payload) != 0 {
		t.Fatalf("payload length changed")
	}
}

func TestReceiveBagRandomPopRemovesExactlyOne(t *testing.T) {
	var bag receiveBag
	a := &Packet{Payload: []byte("a")}
	b := &Packet{Payload: []byte("b")}
	bag.push(a)
	bag.push(b)

	rng := rand.New(rand.NewSource(2))
	got := bag.popRandom(rng)
	if bag.len() != 1 {
		t.Fatalf("expected 1 remaining, got %d", bag.len())
	}
	if got != a && got != b {
		t.Fatalf("popRandom returned an unknown packet")
	}
}

func TestSendBagIsLIFO(t *testing.T) {
	var bag sendBag
	a := &Packet{Payload: []byte("a")}
	b := &Packet{Payload: []byte("b")}
	bag.push(a)
	bag.push(b)

	if bag.peekLast() != b {
		t.Fatalf("expected tail to be the most recently pushed packet")
	}
	if got := bag.popLast(); got != b {
		t.Fatalf("popLast() = %v, want b", got)
	}
	if got := bag.popLast(); got != a {
		t.Fatalf("popLast() = %v, want a", got)
	}
}
