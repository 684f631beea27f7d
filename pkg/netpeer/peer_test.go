package netpeer

import "testing"

func TestLearnAppendsDistinctPeers(t *testing.T) {
	tbl := NewTable()
	a := Addr{IP: "127.0.0.1", Port: 2002}
	b := Addr{IP: "127.0.0.1", Port: 2004}

	if overflow := tbl.Learn(a); overflow {
		t.Fatalf("unexpected overflow learning first peer")
	}
	if overflow := tbl.Learn(a); overflow {
		t.Fatalf("unexpected overflow re-learning known peer")
	}
	if tbl.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", tbl.Len())
	}

	if overflow := tbl.Learn(b); overflow {
		t.Fatalf("unexpected overflow learning second peer")
	}
	if tbl.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", tbl.Len())
	}
}

func TestLearnOverflowLoggedOnce(t *testing.T) {
	tbl := NewTable()
	tbl.Learn(Addr{IP: "127.0.0.1", Port: 2002})
	tbl.Learn(Addr{IP: "127.0.0.1", Port: 2004})

	c := Addr{IP: "127.0.0.1", Port: 2005}
	if overflow := tbl.Learn(c); !overflow {
		t.Fatalf("expected overflow on third distinct peer")
	}
	if overflow := tbl.Learn(c); overflow {
		t.Fatalf("expected overflow to be reported only once")
	}
	if tbl.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 after overflow", tbl.Len())
	}
}

func TestForwardForSwapsPeers(t *testing.T) {
	tbl := NewTable()
	a := Addr{IP: "127.0.0.1", Port: 2002}
	b := Addr{IP: "127.0.0.1", Port: 2004}
	tbl.Learn(a)
	tbl.Learn(b)

	dst, ok := tbl.ForwardFor(a)
	if !ok || dst != b {
		t.Fatalf("ForwardFor(a) = %v, %v; want %v, true", dst, ok, b)
	}
	dst, ok = tbl.ForwardFor(b)
	if !ok || dst != a {
		t.Fatalf("ForwardFor(b) = %v, %v; want %v, true", dst, ok, a)
	}
}

func TestForwardForDegenerateSinglePeerDrops(t *testing.T) {
	tbl := NewTable()
	a := Addr{IP: "127.0.0.1", Port: 2002}
	tbl.Learn(a)

	if _, ok := tbl.ForwardFor(a); ok {
		t.Fatalf("ForwardFor with one known peer should not be routable")
	}
}

func TestForwardForUnknownThirdSourceNotRoutable(t *testing.T) {
	tbl := NewTable()
	a := Addr{IP: "127.0.0.1", Port: 2002}
	b := Addr{IP: "127.0.0.1", Port: 2004}
	tbl.Learn(a)
	tbl.Learn(b)
	tbl.Learn(Addr{IP: "127.0.0.1", Port: 2005})

	if _, ok := tbl.ForwardFor(Addr{IP: "127.0.0.1", Port: 2005}); ok {
		t.Fatalf("surplus peer should not be routable")
	}
}
