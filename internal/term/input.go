package term

import (
	"errors"
	"io"
	"regexp"
	"strconv"
	"sync"
	"time"
)

// ErrClosed is returned by reads after the input has been closed.
var ErrClosed = errors.New("input closed")

// DefaultSeqTimeout is how long a partial escape sequence waits for its
// next byte before it is passed on as typed keys.
const DefaultSeqTimeout = 10 * time.Millisecond

// SequenceHandler takes escape sequences out of the input stream before
// the line editor sees them.
type SequenceHandler interface {
	// Match inspects data, which always starts with ESC. It returns the
	// length of a complete sequence the handler owns, 0 when data does not
	// start with such a sequence, or -1 when data is a prefix of one and
	// more bytes are needed.
	Match(data []byte) int

	// Handle is called synchronously on the reading goroutine. It may call
	// Input.QueryCursor.
	Handle(seq []byte)
}

// Input sits between the tty and the line editor. A single goroutine owns
// reads from the tty; it strips sequences claimed by the handler and routes
// everything else either to Read or, while one is open, to a Tap.
type Input struct {
	src io.Reader
	out io.Writer

	// SeqTimeout bounds the wait for the rest of a sequence the handler
	// asked more bytes for. A lone ESC key is delivered once it expires.
	// It must be set before the first read.
	SeqTimeout time.Duration

	mu      sync.Mutex
	handler SequenceHandler
	tap     *Tap

	raw      chan rawRead
	chunks   chan []byte
	failed   chan struct{}
	closed   chan struct{}
	err      error
	start    sync.Once
	shutdown sync.Once

	// Owned by the Read caller.
	rest []byte

	// Owned by the pump goroutine.
	pending  []byte
	pushback []byte
	readErr  error
}

type rawRead struct {
	b   []byte
	err error
}

// NewInput wraps src. Terminal queries are written to out.
func NewInput(src io.Reader, out io.Writer) *Input {
	return &Input{
		src:        src,
		out:        out,
		SeqTimeout: DefaultSeqTimeout,
		raw:        make(chan rawRead),
		chunks:     make(chan []byte),
		failed: make(chan struct{}),
		closed: make(chan struct{}),
	}
}

// SetHandler installs the sequence handler. Passing nil removes it.
func (in *Input) SetHandler(h SequenceHandler) {
	in.mu.Lock()
	in.handler = h
	in.mu.Unlock()
}

func (in *Input) currentHandler() SequenceHandler {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.handler
}

// Read implements io.Reader for the line editor.
func (in *Input) Read(p []byte) (int, error) {
	in.start.Do(func() { go in.pump() })
	if len(in.rest) == 0 {
		select {
		case c := <-in.chunks:
			in.rest = c
		case <-in.failed:
			return 0, in.err
		case <-in.closed:
			return 0, io.EOF
		}
	}
	n := copy(p, in.rest)
	in.rest = in.rest[n:]
	return n, nil
}

// Close stops delivery. The goroutine blocked on the tty exits after its
// next read returns.
func (in *Input) Close() error {
	in.shutdown.Do(func() { close(in.closed) })
	return nil
}

// Tap diverts input away from Read until the tap is closed.
func (in *Input) Tap() *Tap {
	in.start.Do(func() { go in.pump() })
	t := &Tap{in: in, ch: make(chan []byte), done: make(chan struct{})}
	in.mu.Lock()
	in.tap = t
	in.mu.Unlock()
	return t
}

// readLoop is the only goroutine blocked on the tty.
func (in *Input) readLoop() {
	for {
		buf := make([]byte, 256)
		n, err := in.src.Read(buf)
		select {
		case in.raw <- rawRead{b: buf[:n], err: err}:
		case <-in.closed:
			return
		}
		if err != nil {
			return
		}
	}
}

func (in *Input) pump() {
	go in.readLoop()
	var (
		timer   *time.Timer
		expired <-chan time.Time
	)
	for {
		select {
		case r := <-in.raw:
			if len(r.b) > 0 {
				in.pending = append(in.pending, r.b...)
				in.process(r.err != nil)
			}
			if r.err != nil && in.readErr == nil {
				in.readErr = r.err
			}
		case <-expired:
			in.process(true)
		case <-in.closed:
			return
		}
		if in.readErr != nil {
			if len(in.pending) > 0 {
				in.process(true)
			}
			in.err = in.readErr
			close(in.failed)
			return
		}
		if timer != nil {
			timer.Stop()
			timer, expired = nil, nil
		}
		if len(in.pending) > 0 {
			timer = time.NewTimer(in.SeqTimeout)
			expired = timer.C
		}
	}
}

// process routes in.pending. When final is set, a trailing partial
// sequence is flushed as plain input.
func (in *Input) process(final bool) {
	data := in.pending
	in.pending = nil
	for len(data) > 0 {
		h := in.currentHandler()
		i := 0
		claimed := 0
		for ; i < len(data); i++ {
			if h == nil || data[i] != 0x1b {
				continue
			}
			n := h.Match(data[i:])
			if n < 0 && !final {
				in.deliver(data[:i])
				in.pending = append(in.pending, data[i:]...)
				return
			}
			if n > 0 {
				claimed = n
				break
			}
		}
		in.deliver(data[:i])
		if claimed == 0 {
			return
		}
		seq := append([]byte(nil), data[i:i+claimed]...)
		rest := append([]byte(nil), data[i+claimed:]...)
		h.Handle(seq)
		data = append(rest, in.pushback...)
		in.pushback = nil
	}
}

func (in *Input) deliver(b []byte) {
	if len(b) == 0 {
		return
	}
	chunk := append([]byte(nil), b...)
	in.mu.Lock()
	t := in.tap
	in.mu.Unlock()
	if t != nil {
		select {
		case t.ch <- chunk:
			return
		case <-t.done:
		}
	}
	select {
	case in.chunks <- chunk:
	case <-in.closed:
	}
}

var cprRE = regexp.MustCompile(`\x1b\[(\d+);(\d+)R`)

// QueryCursor asks the terminal for the cursor position and returns the
// zero based row and column. It must only be called from
// SequenceHandler.Handle; bytes that arrive around the report are pushed
// back into the stream.
func (in *Input) QueryCursor() (row, col int, err error) {
	if _, err := io.WriteString(in.out, "\x1b[6n"); err != nil {
		return 0, 0, err
	}
	var acc []byte
	for {
		select {
		case rd := <-in.raw:
			acc = append(acc, rd.b...)
			if m := cprRE.FindSubmatchIndex(acc); m != nil {
				r, _ := strconv.Atoi(string(acc[m[2]:m[3]]))
				c, _ := strconv.Atoi(string(acc[m[4]:m[5]]))
				in.pushback = append(in.pushback, acc[:m[0]]...)
				in.pushback = append(in.pushback, acc[m[1]:]...)
				if rd.err != nil {
					in.readErr = rd.err
				}
				return r - 1, c - 1, nil
			}
			if rd.err != nil {
				in.pushback = append(in.pushback, acc...)
				in.readErr = rd.err
				return 0, 0, rd.err
			}
		case <-in.closed:
			in.pushback = append(in.pushback, acc...)
			return 0, 0, ErrClosed
		}
	}
}

// Inject queues keys as if they had been typed after the sequence being
// handled. Like QueryCursor it must only be called from Handle.
func (in *Input) Inject(keys []byte) {
	in.pushback = append(in.pushback, keys...)
}

// Tap receives input while open. Closing it hands input back to Read.
type Tap struct {
	in   *Input
	ch   chan []byte
	done chan struct{}
	rest []byte
	once sync.Once
}

// Read implements io.Reader.
func (t *Tap) Read(p []byte) (int, error) {
	if len(t.rest) == 0 {
		select {
		case c := <-t.ch:
			t.rest = c
		case <-t.done:
			return 0, io.EOF
		case <-t.in.failed:
			return 0, t.in.err
		case <-t.in.closed:
			return 0, ErrClosed
		}
	}
	n := copy(p, t.rest)
	t.rest = t.rest[n:]
	return n, nil
}

// Close releases the tap.
func (t *Tap) Close() error {
	t.once.Do(func() {
		t.in.mu.Lock()
		if t.in.tap == t {
			t.in.tap = nil
		}
		t.in.mu.Unlock()
		close(t.done)
	})
	return nil
}
