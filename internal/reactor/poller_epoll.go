//go:build linux && !iouring

package reactor

import (
	"time"

	"golang.org/x/sys/unix"
)

// epollPoller is the default Poller, a thin wrapper over epoll_create1 /
// epoll_ctl / epoll_wait, the direct analogue of the original monitor's
// select.epoll() based loop.
type epollPoller struct {
	epfd int
}

func newDefaultPoller() (Poller, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &epollPoller{epfd: fd}, nil
}

func epollEvents(i Interest) uint32 {
	var e uint32
	if i&Readable != 0 {
		e |= unix.EPOLLIN
	}
	if i&Writable != 0 {
		e |= unix.EPOLLOUT
	}
	return e
}

func (p *epollPoller) Add(fd int, interest Interest) error {
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &unix.EpollEvent{
		Events: epollEvents(interest),
		Fd:     int32(fd),
	})
}

func (p *epollPoller) Modify(fd int, interest Interest) error {
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, &unix.EpollEvent{
		Events: epollEvents(interest),
		Fd:     int32(fd),
	})
}

func (p *epollPoller) Remove(fd int) error {
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (p *epollPoller) Wait(timeout time.Duration) ([]Event, error) {
	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
	}

	raw := make([]unix.EpollEvent, 64)
	var n int
	var err error
	for {
		n, err = unix.EpollWait(p.epfd, raw, ms)
		if err != unix.EINTR {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	events := make([]Event, 0, n)
	for _, re := range raw[:n] {
		events = append(events, Event{
			FD:       int(re.Fd),
			Readable: re.Events&(unix.EPOLLIN|unix.EPOLLHUP|unix.EPOLLERR) != 0,
			Writable: re.Events&unix.EPOLLOUT != 0,
			Err:      re.Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0,
		})
	}
	return events, nil
}

func (p *epollPoller) Close() error {
	return unix.Close(p.epfd)
}
