package reactor

import (
	"golang.org/x/sys/unix"
)

// IOObject is anything the Reactor can multiplex. Concrete handlers (the
// serial sensor, the IPC listener, an accepted IPC connection) embed a
// *BaseObject and implement the callback trio.
type IOObject interface {
	FD() int
	Interest() Interest
	OnReadable()
	OnWritable()
	OnError()
	Closed() bool

	// Stop asks the object to shut itself down, normally by closing
	// itself. Reactor.Stop calls it on every still-registered object so
	// a shutdown leaves no descriptor, listener, or connection open.
	Stop()
}

// BaseObject is the common scaffolding every IOObject embeds: the raw
// descriptor, a read-side accumulation buffer, close bookkeeping and the
// set of deferred handles that should be cancelled when the object
// closes. It mirrors the role of the original monitor's IOObjectBase /
// FileObject pair, collapsed into a single embeddable type since Go has
// no mixin inheritance.
type BaseObject struct {
	fd       int
	reactor  *Reactor
	readBuf  []byte
	closed   bool
	onClose  []func()
	deferred []DeferredHandle
}

// NewBaseObject wraps fd for use under r. The caller still must call
// r.Register to start receiving callbacks.
func NewBaseObject(r *Reactor, fd int) *BaseObject {
	return &BaseObject{fd: fd, reactor: r}
}

func (b *BaseObject) FD() int { return b.fd }

func (b *BaseObject) Closed() bool { return b.closed }

// Stop is a no-op by default. Concrete IOObjects override it to close
// themselves; BaseObject itself has no shutdown behavior of its own.
func (b *BaseObject) Stop() {}

// AddCloseHandler registers fn to run once, the first time Close runs.
func (b *BaseObject) AddCloseHandler(fn func()) {
	b.onClose = append(b.onClose, fn)
}

// AttachDeferred ties h's lifetime to this object: Close cancels it if it
// hasn't already fired. Connection timeouts are the prototypical use.
func (b *BaseObject) AttachDeferred(h DeferredHandle) {
	b.deferred = append(b.deferred, h)
}

// Close unregisters the descriptor from the reactor, cancels any attached
// deferred calls, runs close handlers in registration order and closes
// the underlying fd. It is safe to call more than once.
func (b *BaseObject) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true

	if b.reactor != nil {
		b.reactor.Unregister(b.fd)
	}
	for _, h := range b.deferred {
		b.reactor.Cancel(h)
	}
	for _, fn := range b.onClose {
		fn()
	}
	return unix.Close(b.fd)
}

// TryRead reads up to n bytes into the internal buffer, appending to
// whatever hasn't been consumed by ReadBuffer/ClearReadBuffer yet. ready
// is false on EAGAIN; err is non-nil, ready false, on EOF or a real
// error.
func (b *BaseObject) TryRead(n int) (ready bool, err error) {
	chunk := make([]byte, n)
	nread, err := unix.Read(b.fd, chunk)
	if err == unix.EAGAIN {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if nread == 0 {
		return false, unix.EPIPE
	}
	b.readBuf = append(b.readBuf, chunk[:nread]...)
	return true, nil
}

// ReadBuffer returns the bytes accumulated by TryRead since the last
// ClearReadBuffer.
func (b *BaseObject) ReadBuffer() []byte { return b.readBuf }

// ClearReadBuffer drops n bytes from the front of the read buffer,
// keeping the remainder for the next decode attempt.
func (b *BaseObject) ClearReadBuffer(n int) {
	if n >= len(b.readBuf) {
		b.readBuf = b.readBuf[:0]
		return
	}
	b.readBuf = append(b.readBuf[:0], b.readBuf[n:]...)
}

// TryWrite writes data, returning the number of bytes actually written.
// A short write (including zero on EAGAIN) means the caller should ask
// for Writable interest and retry with the remainder.
func (b *BaseObject) TryWrite(data []byte) (int, error) {
	n, err := unix.Write(b.fd, data)
	if err == unix.EAGAIN {
		return 0, nil
	}
	return n, err
}
