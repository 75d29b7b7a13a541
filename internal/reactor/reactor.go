package reactor

import (
	"time"

	"github.com/xbee868/monitor/internal/constants"
	"github.com/xbee868/monitor/internal/logging"
)

// Reactor is the single-threaded event loop the monitor daemon runs on:
// a readiness poller keyed by registered IOObjects, plus a deferred-call
// scheduler for timeouts and periodic work. It is the Go analogue of the
// original monitor's IOLoop.
type Reactor struct {
	poller    Poller
	scheduler *scheduler
	objects   map[int]IOObject
	current   map[int]Interest
	logger    *logging.Logger
}

// NewReactor builds a Reactor using the platform default Poller (epoll,
// or io_uring when built with the "iouring" tag).
func NewReactor(logger *logging.Logger) (*Reactor, error) {
	poller, err := newDefaultPoller()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Reactor{
		poller:    poller,
		scheduler: newScheduler(),
		objects:   make(map[int]IOObject),
		current:   make(map[int]Interest),
		logger:    logger,
	}, nil
}

// Register starts delivering readiness callbacks for obj.
func (r *Reactor) Register(obj IOObject) error {
	fd := obj.FD()
	interest := obj.Interest()
	if err := r.poller.Add(fd, interest); err != nil {
		return err
	}
	r.objects[fd] = obj
	r.current[fd] = interest
	return nil
}

// Unregister stops delivering callbacks for fd. Registering an object
// yourself obliges you to Unregister it, normally from Close; Reactor
// never does so on your behalf outside of that path.
func (r *Reactor) Unregister(fd int) {
	if _, ok := r.objects[fd]; !ok {
		return
	}
	_ = r.poller.Remove(fd)
	delete(r.objects, fd)
	delete(r.current, fd)
}

// ScheduleAt arranges for fn to run at or after due.
func (r *Reactor) ScheduleAt(due time.Time, fn func()) DeferredHandle {
	return r.scheduler.scheduleAt(due, fn)
}

// ScheduleAfter arranges for fn to run after d has elapsed.
func (r *Reactor) ScheduleAfter(d time.Duration, fn func()) DeferredHandle {
	return r.scheduler.scheduleAfter(d, fn)
}

// ScheduleNext arranges for fn to run on the next loop iteration.
func (r *Reactor) ScheduleNext(fn func()) DeferredHandle {
	return r.scheduler.scheduleAt(time.Now(), fn)
}

// Cancel cancels a call scheduled with one of the Schedule* methods. It
// reports false if the call already ran or was already cancelled.
func (r *Reactor) Cancel(h DeferredHandle) bool {
	return r.scheduler.cancel(h)
}

// Stop asks every registered object to close itself and drops every
// pending deferred call, so Run's loop condition (descriptor map and
// deferred queue both empty) goes false on its own: no fd, listener, or
// in-flight connection is left open, and on-close handlers run normally
// through each object's own Close.
func (r *Reactor) Stop() {
	for _, obj := range r.objects {
		obj.Stop()
	}
	r.scheduler.cancelAll()
}

// Run drives the loop until both the descriptor map and the deferred
// queue are empty, or the poller reports an unrecoverable error. Each
// iteration: run any deferred calls now due, reconcile each registered
// object's current interest with the poller, wait for readiness
// (bounded by the next deferred call's due time), and dispatch the
// resulting callbacks. Stop drains both the map and the queue directly,
// so there is no separate "stopping" flag to check here.
func (r *Reactor) Run() error {
	for r.hasWork() {
		r.scheduler.runDue(time.Now().Add(constants.ReactorPollSlack))
		if !r.hasWork() {
			break
		}

		r.reconcileInterest()

		timeout := r.waitTimeout()
		events, err := r.poller.Wait(timeout)
		if err != nil {
			return err
		}

		for _, ev := range events {
			obj, ok := r.objects[ev.FD]
			if !ok {
				continue
			}
			r.dispatch(obj, ev)
		}
	}
	return nil
}

func (r *Reactor) hasWork() bool {
	return len(r.objects) > 0 || r.scheduler.pending()
}

func (r *Reactor) reconcileInterest() {
	for fd, obj := range r.objects {
		want := obj.Interest()
		if want != r.current[fd] {
			if err := r.poller.Modify(fd, want); err != nil {
				r.logger.Errorf("reactor: modify interest for fd %d: %v", fd, err)
				continue
			}
			r.current[fd] = want
		}
	}
}

func (r *Reactor) waitTimeout() time.Duration {
	due, ok := r.scheduler.nextDue()
	if !ok {
		return -1
	}
	d := time.Until(due)
	if d < 0 {
		d = 0
	}
	return d
}

func (r *Reactor) dispatch(obj IOObject, ev Event) {
	defer func() {
		if err := recover(); err != nil {
			r.logger.Errorf("reactor: panic handling fd %d: %v", ev.FD, err)
		}
	}()

	if ev.Err {
		obj.OnError()
		return
	}
	if ev.Readable {
		obj.OnReadable()
	}
	if !obj.Closed() && ev.Writable {
		obj.OnWritable()
	}
}

// Close releases the underlying poller. Call after Run returns.
func (r *Reactor) Close() error {
	return r.poller.Close()
}
