package pipeline

import (
	"math"
	"math/rand"
	"time"

	"github.com/gammazero/deque"
	"github.com/rs/zerolog"

	"netimpair/pkg/impairment"
	"netimpair/pkg/metrics"
	"netimpair/pkg/netpeer"
)

// IdleSleep is the short pause taken when all four phases are idle, to
// avoid pegging a core. It must never be applied while any holder is
// non-empty.
const IdleSleep = 200 * time.Microsecond

// Pipeline is the single event loop described by the state machine
// received → in_receive_bag → (dropped | in_latency_queue) → on_deck →
// in_send_bag → sent. It owns the socket, the three packet holders, the
// on-deck slot, the peer table, and the impairment state, and is driven
// by repeated calls to Step. It is not safe for concurrent use.
type Pipeline struct {
	sock  *socket
	peers *netpeer.Table
	state *impairment.State
	log   zerolog.Logger
	rng   *rand.Rand

	recvBag  receiveBag
	latQueue deque.Deque[*Packet]
	sendBag  sendBag
	onDeck   *Packet

	started bool
	recvBuf [MaxDatagramSize]byte
}

// New constructs a Pipeline bound to listenAddr, using rng for all of
// the loop's own random draws (loss, random-index admission, and
// corruption bit positions) separately from the per-dimension provider
// streams inside state.
func New(listenAddr string, state *impairment.State, rng *rand.Rand, log zerolog.Logger) (*Pipeline, error) {
	sock, err := newSocket(listenAddr)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		sock:  sock,
		peers: netpeer.NewTable(),
		state: state,
		log:   log,
		rng:   rng,
	}, nil
}

// Close releases the underlying socket. The CSV trace in state is
// closed separately by the shutdown controller.
func (p *Pipeline) Close() error {
	return p.sock.close()
}

// PreLearnPeer registers addr as a known peer before its first packet
// arrives, so the canonical receiver endpoint can be seeded ahead of
// time instead of waiting out the degenerate single-peer drop window.
func (p *Pipeline) PreLearnPeer(addr netpeer.Addr) {
	p.peers.Learn(addr)
}

// Step runs one iteration: phase A, a refresh, phase B, a refresh,
// phase C, a refresh, phase D. It reports busy when any phase did
// meaningful work or any holder (including the on-deck slot) still
// holds a packet, so the caller sleeps only when the pipeline is empty.
func (p *Pipeline) Step(now time.Time) (busy bool, err error) {
	busyA, err := p.phaseA()
	if err != nil {
		return false, err
	}
	if err := p.refresh(now); err != nil {
		return false, err
	}

	busyB, err := p.phaseB()
	if err != nil {
		return false, err
	}
	if err := p.refresh(now); err != nil {
		return false, err
	}

	busyC := p.phaseC(now)
	if err := p.refresh(now); err != nil {
		return false, err
	}

	busyD := p.phaseD(now)

	busy = busyA || busyB || busyC || busyD ||
		p.recvBag.len() > 0 || p.latQueue.Len() > 0 || p.sendBag.len() > 0 || p.onDeck != nil
	return busy, nil
}

func (p *Pipeline) refresh(now time.Time) error {
	if err := p.state.Update(p.started, now); err != nil {
		return err
	}
	metrics.SetGauges(p.state.Bandwidth(), p.state.Latency(), p.state.Loss(), p.state.CorruptionRate())
	return nil
}

// phaseA drains the send-bag. It corrupts the tail packet, then
// attempts to send it; a would-block leaves the packet at the tail for
// retry on the next Step.
func (p *Pipeline) phaseA() (busy bool, err error) {
	for p.sendBag.len() > 0 {
		pkt := p.sendBag.peekLast()

		if p.rng.Float64() < p.state.CorruptionRate() {
			k := p.state.CorruptionMultiplicity()
			pkt.Corrupt(p.rng, k)
			if k > 0 && len(pkt.Payload) > 0 {
				metrics.PacketsCorrupted.Inc()
				metrics.BitsFlipped.Add(float64(k))
			}
		}

		if err := p.sock.sendTo(pkt.Payload, pkt.Forward); err != nil {
			if err == errWouldBlock {
				return busy, nil
			}
			return busy, err
		}
		p.sendBag.popLast()
		metrics.PacketsSent.Inc()
		busy = true
	}
	return busy, nil
}

// phaseB drains the kernel receive queue into the receive-bag.
func (p *Pipeline) phaseB() (busy bool, err error) {
	for {
		n, from, err := p.sock.recvFrom(p.recvBuf[:])
		if err != nil {
			if err == errWouldBlock {
				return busy, nil
			}
			return busy, err
		}
		p.started = true
		metrics.PacketsReceived.Inc()

		if overflow := p.peers.Learn(from); overflow {
			p.log.Warn().Str("source", from.IP).Int("port", from.Port).Msg("peer table overflow: ignoring surplus source")
		}

		fwd, ok := p.peers.ForwardFor(from)
		if !ok {
			// Degenerate single-peer case, or an unroutable surplus
			// source: drop rather than hold.
			metrics.PacketsDropped.Inc()
			busy = true
			continue
		}

		payload := make([]byte, n)
		copy(payload, p.recvBuf[:n])
		p.recvBag.push(&Packet{Payload: payload, Forward: fwd})
		busy = true
	}
}

// phaseC drains the receive-bag by random-index pick, applies the loss
// draw, and admits survivors into the latency queue.
func (p *Pipeline) phaseC(now time.Time) (busy bool) {
	for p.recvBag.len() > 0 {
		pkt := p.recvBag.popRandom(p.rng)
		busy = true

		if p.rng.Float64() < p.state.Loss() {
			metrics.PacketsDropped.Inc()
			continue
		}

		pkt.Time = now.Add(time.Duration(p.state.Latency() * float64(time.Second)))
		p.latQueue.PushFront(pkt)
	}
	return busy
}

// phaseD serializes packets through the virtual link: at most one
// packet occupies the on-deck slot at a time, and its release time is
// set by the current bandwidth when it is placed there.
func (p *Pipeline) phaseD(now time.Time) (busy bool) {
	if p.onDeck != nil {
		if !now.Before(p.onDeck.Time) {
			p.sendBag.push(p.onDeck)
			p.onDeck = nil
			return true
		}
		return false
	}

	if p.latQueue.Len() == 0 {
		return false
	}
	tail := p.latQueue.Back()
	if now.Before(tail.Time) {
		return false
	}
	p.latQueue.PopBack()

	bw := p.state.Bandwidth()
	if bw > 0 {
		tail.Time = now.Add(time.Duration(float64(len(tail.Payload)) / bw * float64(time.Second)))
	} else {
		// With no bandwidth the link never finishes serving the
		// packet, so it stays on deck indefinitely.
		tail.Time = now.Add(time.Duration(math.MaxInt64))
	}
	p.onDeck = tail
	return true
}
