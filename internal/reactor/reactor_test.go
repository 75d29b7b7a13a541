package reactor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func testPipe(t *testing.T) (r, w int) {
	t.Helper()
	fds, err := unix.Pipe2(unix.O_NONBLOCK | unix.O_CLOEXEC)
	require.NoError(t, err)
	t.Cleanup(func() {
		unix.Close(fds[0])
		unix.Close(fds[1])
	})
	return fds[0], fds[1]
}

// recordingObject is a minimal IOObject that records callbacks and can
// be told to stop the reactor on the next readable event.
type recordingObject struct {
	*BaseObject
	readableCount int
	onReadable    func()
}

func (o *recordingObject) Interest() Interest { return Readable }
func (o *recordingObject) OnReadable() {
	o.readableCount++
	if o.onReadable != nil {
		o.onReadable()
	}
}
func (o *recordingObject) OnWritable() {}
func (o *recordingObject) OnError()    {}
func (o *recordingObject) Stop()       { o.Close() }

func TestReactorDispatchesReadable(t *testing.T) {
	r, err := NewReactor(nil)
	require.NoError(t, err)
	defer r.Close()

	rfd, wfd := testPipe(t)
	obj := &recordingObject{}
	obj.BaseObject = NewBaseObject(r, rfd)
	obj.onReadable = func() {
		obj.TryRead(64)
		r.Stop()
	}
	require.NoError(t, r.Register(obj))

	unix.Write(wfd, []byte("hi"))

	done := make(chan error, 1)
	go func() { done <- r.Run() }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("reactor did not stop")
	}
	assert.Equal(t, 1, obj.readableCount)
	assert.Equal(t, []byte("hi"), obj.ReadBuffer())
}

func TestReactorRunsDeferredCallsBeforeStop(t *testing.T) {
	r, err := NewReactor(nil)
	require.NoError(t, err)
	defer r.Close()

	var ran bool
	r.ScheduleNext(func() {
		ran = true
		r.Stop()
	})

	err = r.Run()
	assert.NoError(t, err)
	assert.True(t, ran)
}

func TestReactorCancelPreventsCall(t *testing.T) {
	r, err := NewReactor(nil)
	require.NoError(t, err)
	defer r.Close()

	var ran bool
	h := r.ScheduleAfter(time.Hour, func() { ran = true })
	assert.True(t, r.Cancel(h))
	assert.False(t, r.Cancel(h))

	r.ScheduleNext(func() { r.Stop() })
	require.NoError(t, r.Run())
	assert.False(t, ran)
}

func TestUnregisterStopsCallbacks(t *testing.T) {
	r, err := NewReactor(nil)
	require.NoError(t, err)
	defer r.Close()

	rfd, wfd := testPipe(t)
	obj := &recordingObject{}
	obj.BaseObject = NewBaseObject(r, rfd)
	require.NoError(t, r.Register(obj))
	r.Unregister(rfd)

	unix.Write(wfd, []byte("x"))
	r.ScheduleAfter(20*time.Millisecond, func() { r.Stop() })
	require.NoError(t, r.Run())

	assert.Equal(t, 0, obj.readableCount)
}
