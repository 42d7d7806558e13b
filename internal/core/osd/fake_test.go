package osd

import (
	"context"
	"errors"
	"sync"
)

// fakeCatalog is a backend whose answers and failures are set per test.
type fakeCatalog struct {
	mu sync.Mutex

	taskSequences []string
	groups        []string
	driverGroups  []string
	manufacturers []string
	models        []string

	// failOn makes the named query fail.
	failOn string
	calls  int
}

var errBackend = errors.New("backend unavailable")

func (f *fakeCatalog) answer(name string, v []string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failOn == name {
		return nil, errBackend
	}
	return append([]string(nil), v...), nil
}

func (f *fakeCatalog) TaskSequenceIDs(context.Context) ([]string, error) {
	return f.answer("task sequences", f.taskSequences)
}

func (f *fakeCatalog) TaskSequenceGroups(context.Context) ([]string, error) {
	return f.answer("groups", f.groups)
}

func (f *fakeCatalog) DriverGroups(context.Context) ([]string, error) {
	return f.answer("driver groups", f.driverGroups)
}

func (f *fakeCatalog) Manufacturers(context.Context) ([]string, error) {
	return f.answer("manufacturers", f.manufacturers)
}

func (f *fakeCatalog) Models(context.Context) ([]string, error) {
	return f.answer("models", f.models)
}

// fakeConn tracks whether it was closed and can fail or panic on close.
type fakeConn struct {
	*fakeCatalog
	closeErr   error
	closePanic bool
	closed     int
}

func (c *fakeConn) ConnectionString() string { return "fake://backend" }

func (c *fakeConn) Close() error {
	c.closed++
	if c.closePanic {
		panic("driver exploded")
	}
	return c.closeErr
}

// fakeOpener hands out connections built by next and records each one.
type fakeOpener struct {
	mu      sync.Mutex
	opened  []*fakeConn
	openErr error
	next    func() *fakeConn
}

func (o *fakeOpener) Open(_ context.Context, _ Configuration) (Conn, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.openErr != nil {
		return nil, o.openErr
	}
	var c *fakeConn
	if o.next != nil {
		c = o.next()
	} else {
		c = &fakeConn{fakeCatalog: &fakeCatalog{}}
	}
	o.opened = append(o.opened, c)
	return c, nil
}

func (o *fakeOpener) last() *fakeConn {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.opened) == 0 {
		return nil
	}
	return o.opened[len(o.opened)-1]
}

func staticResolver(share string) Resolver {
	return ResolverFunc(func() (Configuration, error) {
		return Configuration{
			SharePath:            share,
			DefaultOU:            "OU=X",
			ComputerNameTemplate: "MDT-{0}",
		}, nil
	})
}
