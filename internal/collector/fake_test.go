package collector

import (
	"context"
	"errors"
	"io"
	"sync"
)

const authOK = `{"msg_type":"authorize","authorize":{"loginid":"VRTC100"}}`

// fakeConn replays scripted inbound frames. Once the script is exhausted it
// returns io.EOF, or blocks until Close when block is set.
type fakeConn struct {
	mu     sync.Mutex
	frames []string
	writes []interface{}
	reads  int
	block  bool

	closeOnce sync.Once
	closed    chan struct{}
}

func newFakeConn(block bool, frames ...string) *fakeConn {
	return &fakeConn{frames: frames, block: block, closed: make(chan struct{})}
}

func (f *fakeConn) WriteJSON(v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, v)
	return nil
}

func (f *fakeConn) ReadMessage() ([]byte, error) {
	f.mu.Lock()
	f.reads++
	if len(f.frames) > 0 {
		fr := f.frames[0]
		f.frames = f.frames[1:]
		f.mu.Unlock()
		return []byte(fr), nil
	}
	f.mu.Unlock()
	if f.block {
		<-f.closed
	}
	return nil, io.EOF
}

func (f *fakeConn) Close() error {
	f.closeOnce.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) readCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

func (f *fakeConn) written() []interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]interface{}(nil), f.writes...)
}

// fakeDialer hands out scripted connections in order. A non-nil entry in
// errs fails the dial with the same index.
type fakeDialer struct {
	mu    sync.Mutex
	conns []*fakeConn
	errs  []error
	dials int
	next  int
}

func (d *fakeDialer) Dial(ctx context.Context, _ string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := d.dials
	d.dials++
	if n < len(d.errs) && d.errs[n] != nil {
		return nil, d.errs[n]
	}
	if d.next >= len(d.conns) {
		return nil, errors.New("no more scripted connections")
	}
	c := d.conns[d.next]
	d.next++
	return c, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}
