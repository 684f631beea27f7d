package pipeline

import (
	"errors"
	"fmt"
	"net"

	"github.com/higebu/netfd"
	"golang.org/x/sys/unix"

	"netimpair/pkg/netpeer"
)

// MaxDatagramSize is the receive-buffer bound; larger datagrams are
// silently truncated by the kernel, matching the documented MTU limit.
const MaxDatagramSize = 4096

// socket is a non-blocking IPv4 UDP socket driven directly through raw
// fd syscalls rather than through net.UDPConn's read/write path. Go's
// net package hides a socket's blocking state behind its own
// netpoller, which would force the pipeline's receive and send paths
// to either block a goroutine or layer a polling hack on top of
// already-polled I/O; reaching past it for the raw fd lets would-block
// surface as EAGAIN/EWOULDBLOCK exactly as the pipeline's pacing
// design expects.
type socket struct {
	conn *net.UDPConn
	fd   int
}

// newSocket binds a non-blocking UDP socket to listenAddr.
func newSocket(listenAddr string) (*socket, error) {
	addr, err := net.ResolveUDPAddr("udp4", listenAddr)
	if err != nil {
		return nil, fmt.Errorf("pipeline: resolving listen address %q: %w", listenAddr, err)
	}
	conn, err := net.ListenUDP("udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("pipeline: binding %q: %w", listenAddr, err)
	}
	fd := netfd.GetFdFromConn(conn)
	if err := unix.SetNonblock(fd, true); err != nil {
		conn.Close()
		return nil, fmt.Errorf("pipeline: setting socket non-blocking: %w", err)
	}
	return &socket{conn: conn, fd: fd}, nil
}

// errWouldBlock is the sentinel recvFrom/sendTo return when the
// syscall reports EAGAIN/EWOULDBLOCK. It is the loop's expected pacing
// signal, never a surfaced error.
var errWouldBlock = errors.New("pipeline: socket would block")

// recvFrom reads one datagram into buf. It returns errWouldBlock when
// the kernel receive queue is empty.
func (s *socket) recvFrom(buf []byte) (n int, from netpeer.Addr, err error) {
	n, sa, err := unix.Recvfrom(s.fd, buf, 0)
	if err != nil {
		if isWouldBlock(err) {
			return 0, netpeer.Addr{}, errWouldBlock
		}
		return 0, netpeer.Addr{}, err
	}
	addr, ok := sa.(*unix.SockaddrInet4)
	if !ok {
		return 0, netpeer.Addr{}, fmt.Errorf("pipeline: unexpected sockaddr type %T", sa)
	}
	from = netpeer.Addr{
		IP:   fmt.Sprintf("%d.%d.%d.%d", addr.Addr[0], addr.Addr[1], addr.Addr[2], addr.Addr[3]),
		Port: addr.Port,
	}
	return n, from, nil
}

// sendTo writes payload to dst. It returns errWouldBlock when the
// socket's send buffer is full.
func (s *socket) sendTo(payload []byte, dst netpeer.Addr) error {
	sa, err := toSockaddr(dst)
	if err != nil {
		return err
	}
	if err := unix.Sendto(s.fd, payload, 0, sa); err != nil {
		if isWouldBlock(err) {
			return errWouldBlock
		}
		return err
	}
	return nil
}

func toSockaddr(a netpeer.Addr) (*unix.SockaddrInet4, error) {
	ip := net.ParseIP(a.IP)
	if ip == nil {
		return nil, fmt.Errorf("pipeline: invalid IPv4 address %q", a.IP)
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return nil, fmt.Errorf("pipeline: address %q is not IPv4", a.IP)
	}
	sa := &unix.SockaddrInet4{Port: a.Port}
	copy(sa.Addr[:], ip4)
	return sa, nil
}

func isWouldBlock(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK)
}

func (s *socket) close() error {
	return s.conn.Close()
}
