// Package netpeer implements the address-pairing rule that makes the
// proxy transparent: the forward address for a datagram from one peer
// is the other peer.
package netpeer

import "net"

// Addr is the ⟨IPv4 literal, UDP port⟩ pair the proxy routes by.
// Equality is structural, matching net.UDPAddr's own comparison when
// Zone is empty (always true for IPv4).
type Addr struct {
	IP   string
	Port int
}

// FromUDPAddr converts a net.UDPAddr into the structural Addr key.
func FromUDPAddr(a *net.UDPAddr) Addr {
	return Addr{IP: a.IP.String(), Port: a.Port}
}

// UDPAddr converts back to a *net.UDPAddr suitable for sendto.
func (a Addr) UDPAddr() *net.UDPAddr {
	return &net.UDPAddr{IP: net.ParseIP(a.IP), Port: a.Port}
}

// Table is an append-only, order-preserving list of at most two
// learned peer addresses.
type Table struct {
	peers []Addr

	// overflowLogged remembers whether a third-peer warning has
	// already been emitted, so surplus sources beyond the second only
	// get logged once.
	overflowLogged bool
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{peers: make([]Addr, 0, 2)}
}

// Learn records addr as a peer if it is not already known and the
// table has fewer than two entries. It reports whether this call
// caused a third-distinct-peer overflow (the caller should log this
// exactly once; subsequent overflows are silently ignored).
func (t *Table) Learn(addr Addr) (overflow bool) {
	for _, p := range t.peers {
		if p == addr {
			return false
		}
	}
	if len(t.peers) < 2 {
		t.peers = append(t.peers, addr)
		return false
	}
	if t.overflowLogged {
		return false
	}
	t.overflowLogged = true
	return true
}

// Len reports how many distinct peers have been learned so far.
func (t *Table) Len() int { return len(t.peers) }

// ForwardFor returns the address a datagram received from src should
// be forwarded to, and whether forwarding is currently possible.
//
// With two known peers, the forward address is the other one. With
// only one known peer, the second endpoint has not yet sent its first
// datagram: forwarding is not possible, and the caller drops the
// packet rather than holding it (an explicitly sanctioned alternative
// to holding — see the peer-pairing discussion in the pipeline design).
func (t *Table) ForwardFor(src Addr) (dst Addr, ok bool) {
	if len(t.peers) != 2 {
		return Addr{}, false
	}
	switch src {
	case t.peers[0]:
		return t.peers[1], true
	case t.peers[1]:
		return t.peers[0], true
	default:
		// A surplus, already-logged third source: not routable.
		return Addr{}, false
	}
}
