// Package goserial adapts github.com/daedaluz/goserial onto the pipeline
// package's ByteSource/ByteWriter/Delayer interfaces, so the core driver
// can talk to a real /dev/ttyUSB*-style GPS module. Like cmd/mtkgpsctl, it
// is a SPEC_FULL.md §12 piece that lives outside the core's import graph: frame,
// pipeline, pmtk, locus, and units never import it.
package goserial

import (
	"sync"
	"syscall"
	"time"

	serial "github.com/daedaluz/goserial"

	"github.com/edgebound/mtkgps/pipeline"
)

// ring is a small SPSC byte ring feeding the pipeline.Reader's non-blocking
// Grant/Commit contract from a background read goroutine. It drops the
// oldest byte on overflow rather than blocking the reader goroutine,
// matching the bounded-ring-buffer model of spec.md §5.
type ring struct {
	mu   sync.Mutex
	data []byte
	cap  int
}

func newRing(capacity int) *ring {
	return &ring{cap: capacity}
}

func (r *ring) push(b byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.data) >= r.cap {
		r.data = r.data[1:]
	}
	r.data = append(r.data, b)
}

func (r *ring) peek() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]byte, len(r.data))
	copy(out, r.data)
	return out
}

func (r *ring) advance(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n > len(r.data) {
		n = len(r.data)
	}
	r.data = r.data[n:]
}

// Transport is a pipeline.ByteSource, pipeline.ByteWriter, and io.Closer
// backed by a real serial port. A background goroutine pumps bytes from
// the port's blocking Read into the ring buffer so the transactor's
// Grant-based reads stay non-blocking.
type Transport struct {
	port *serial.Port
	rx   *ring

	stop chan struct{}
	done chan struct{}
}

// commonBauds maps the handful of baud rates MediaTek modules are shipped
// at onto goserial's CBAUD-mask constants.
var commonBauds = map[uint32]serial.CFlag{
	9600:   serial.B9600,
	38400:  serial.B38400,
	57600:  serial.B57600,
	115200: serial.B115200,
}

// Open opens device (e.g. "/dev/ttyUSB0"), configures it 8N1 raw at baud
// (a baud rate not in commonBauds falls back to 9600), and starts the background read pump feeding a ring buffer of rxBufSize
// bytes (spec.md §6's RX_BUF_SIZE).
func Open(device string, baud uint32, rxBufSize int) (*Transport, error) {
	opts := serial.NewOptions()
	opts.OpenMode = syscall.O_RDWR | syscall.O_NOCTTY | syscall.O_NONBLOCK
	port, err := serial.Open(device, opts)
	if err != nil {
		return nil, err
	}

	attrs, err := port.GetAttr()
	if err != nil {
		port.Close()
		return nil, err
	}
	attrs.MakeRaw()
	speed, ok := commonBauds[baud]
	if !ok {
		speed = serial.B9600
	}
	attrs.SetSpeed(speed)
	if err := port.SetAttr(serial.TCSANOW, attrs); err != nil {
		port.Close()
		return nil, err
	}

	t := &Transport{
		port: port,
		rx:   newRing(rxBufSize),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go t.pump()
	return t, nil
}

func (t *Transport) pump() {
	defer close(t.done)
	one := make([]byte, 1)
	for {
		select {
		case <-t.stop:
			return
		default:
		}
		n, err := t.port.Read(one)
		if err != nil {
			if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
				time.Sleep(time.Millisecond)
				continue
			}
			return
		}
		if n > 0 {
			t.rx.push(one[0])
		}
	}
}

// Grant implements pipeline.ByteSource.
func (t *Transport) Grant() ([]byte, error) { return t.rx.peek(), nil }

// Commit implements pipeline.ByteSource.
func (t *Transport) Commit(n int) { t.rx.advance(n) }

// WriteByte implements pipeline.ByteWriter, translating the port's
// non-blocking write errors into pipeline.ErrWouldBlock.
func (t *Transport) WriteByte(b byte) error {
	_, err := t.port.Write([]byte{b})
	if err == nil {
		return nil
	}
	if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
		return pipeline.ErrWouldBlock
	}
	return err
}

// Close stops the read pump and closes the underlying port.
func (t *Transport) Close() error {
	close(t.stop)
	<-t.done
	return t.port.Close()
}

var (
	_ pipeline.ByteSource = (*Transport)(nil)
	_ pipeline.ByteWriter = (*Transport)(nil)
)

// Delay is a pipeline.Delayer backed by a real clock, for use outside
// tests (which use mocktransport.NoopDelay instead).
type Delay struct{}

// DelayMicros implements pipeline.Delayer.
func (Delay) DelayMicros(us uint32) { time.Sleep(time.Duration(us) * time.Microsecond) }

var _ pipeline.Delayer = Delay{}
