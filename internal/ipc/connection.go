package ipc

import (
	"github.com/xbee868/monitor/internal/constants"
	"github.com/xbee868/monitor/internal/logging"
	"github.com/xbee868/monitor/internal/queue"
	"github.com/xbee868/monitor/internal/reactor"
)

type connState int

const (
	stateReadingLength connState = iota
	stateReadingBody
	stateWritingReply
	stateDone
)

// Connection is one accepted client connection: read a length-prefixed
// JSON request, dispatch it, write back a length-prefixed JSON reply,
// close. A deferred timeout closes the connection if the client never
// finishes its half.
type Connection struct {
	*reactor.BaseObject
	id          uint64
	dispatcher  *Dispatcher
	logger      *logging.Logger
	obs         Observer
	state       connState
	bodySize    uint64
	writeBuf    []byte
	writeOffset int
}

func newConnection(r *reactor.Reactor, fd int, id uint64, dispatcher *Dispatcher, logger *logging.Logger, obs Observer) *Connection {
	if obs == nil {
		obs = noOpObserver{}
	}
	c := &Connection{
		BaseObject: reactor.NewBaseObject(r, fd),
		id:         id,
		dispatcher: dispatcher,
		logger:     logger,
		obs:        obs,
	}
	handle := r.ScheduleAfter(constants.IPCTimeout, c.onTimedOut)
	c.AttachDeferred(handle)
	c.AddCloseHandler(func() {
		if c.writeBuf != nil {
			queue.PutBuffer(c.writeBuf)
		}
	})
	return c
}

func (c *Connection) Interest() reactor.Interest {
	switch c.state {
	case stateWritingReply:
		return reactor.Writable
	case stateDone:
		return 0
	default:
		return reactor.Readable
	}
}

func (c *Connection) onTimedOut() {
	c.logger.Warnf("client connection #%d timed out", c.id)
	c.obs.ObserveConnectionTimedOut()
	c.Close()
}

func (c *Connection) OnError() {
	c.logger.Debugf("client connection #%d closed the connection", c.id)
	c.Close()
}

// Stop closes the connection, dropping any in-flight request or reply.
func (c *Connection) Stop() {
	c.Close()
}

func (c *Connection) OnReadable() {
	switch c.state {
	case stateReadingLength:
		c.readLength()
	case stateReadingBody:
		c.readBody()
	}
}

func (c *Connection) readLength() {
	ready, err := c.TryRead(constants.LengthPrefixSize - len(c.ReadBuffer()))
	if err != nil {
		c.Close()
		return
	}
	if !ready || len(c.ReadBuffer()) < constants.LengthPrefixSize {
		return
	}

	c.bodySize = DecodeLength(c.ReadBuffer()[:constants.LengthPrefixSize])
	c.ClearReadBuffer(constants.LengthPrefixSize)

	if c.bodySize > constants.MaxRequestSize {
		c.logger.Errorf("client connection #%d: request size too large (%d)", c.id, c.bodySize)
		c.Close()
		return
	}
	if c.bodySize == 0 {
		// An empty-body request has nothing to dispatch; there is no
		// reply to send back either, so just close.
		c.Close()
		return
	}
	c.state = stateReadingBody
}

func (c *Connection) readBody() {
	want := int(c.bodySize) - len(c.ReadBuffer())
	if want < 0 {
		want = 0
	}
	ready, err := c.TryRead(want)
	if err != nil {
		c.Close()
		return
	}
	if !ready || uint64(len(c.ReadBuffer())) < c.bodySize {
		return
	}

	c.handleRequest(c.ReadBuffer()[:c.bodySize])
}

func (c *Connection) handleRequest(body []byte) {
	req, err := ParseRequest(body)
	if err != nil {
		c.logger.Errorf("client connection #%d: got an invalid request: %v", c.id, err)
		c.Close()
		return
	}

	c.logger.Infof("client connection #%d: request %s", c.id, req.Method)
	reply := c.dispatcher.Handle(req)
	c.obs.ObserveRequest(reply.Error == "")

	encoded, err := EncodeReply(reply)
	if err != nil {
		c.logger.Errorf("client connection #%d: failed to encode reply: %v", c.id, err)
		c.Close()
		return
	}

	c.writeBuf = queue.GetBuffer(uint32(len(encoded)))
	copy(c.writeBuf, encoded)
	c.state = stateWritingReply
}

func (c *Connection) OnWritable() {
	if c.state != stateWritingReply {
		return
	}

	n, err := c.TryWrite(c.writeBuf[c.writeOffset:])
	if err != nil {
		c.Close()
		return
	}
	c.writeOffset += n

	if c.writeOffset >= len(c.writeBuf) {
		c.state = stateDone
		c.Close()
	}
}
