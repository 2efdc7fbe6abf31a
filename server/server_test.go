package server

import (
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mastercactapus/glovelink/device"
	"github.com/mastercactapus/glovelink/frame"
	"github.com/mastercactapus/glovelink/record"
)

// gloveStub behaves like a serial port with a read timeout: it returns
// queued data, or nothing after a short wait, and errors once closed.
type gloveStub struct {
	data   chan []byte
	mu     sync.Mutex
	closed bool
	fail   error
}

func newGloveStub() *gloveStub { return &gloveStub{data: make(chan []byte, 16)} }

func (g *gloveStub) Read(b []byte) (int, error) {
	g.mu.Lock()
	closed, fail := g.closed, g.fail
	g.mu.Unlock()
	if closed {
		return 0, errors.New("port closed")
	}
	if fail != nil {
		return 0, fail
	}

	select {
	case d := <-g.data:
		return copy(b, d), nil
	case <-time.After(5 * time.Millisecond):
		return 0, nil
	}
}

func (g *gloveStub) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	return nil
}

func (g *gloveStub) setFail(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fail = err
}

func (g *gloveStub) reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = false
	g.fail = nil
}

func (g *gloveStub) Write(b []byte) (int, error)         { return len(b), nil }
func (g *gloveStub) SetReadTimeout(time.Duration) error { return nil }

type testEnv struct {
	srv  *Server
	conn *Conn
	stub *gloveStub
	dir  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{stub: newGloveStub(), dir: t.TempDir()}

	dev := device.NewConn(device.Config{
		Opener: func(name string, baud int) (device.Port, error) {
			if name != "/dev/ttyGLOVE" {
				return nil, os.ErrNotExist
			}
			return env.stub, nil
		},
	})
	env.srv = NewServer(Config{
		Device:   dev,
		Recorder: record.NewRecorder(record.Config{Dir: env.dir}),
		Reader:   frame.Config{PausePoll: time.Millisecond},
	})
	env.srv.listPorts = func() ([]device.PortInfo, error) {
		return []device.PortInfo{
			{Name: "/dev/ttyGLOVE", Kind: device.KindUSB, Product: "Glove"},
			{Name: "/dev/ttyS0", Kind: device.KindOther},
		}, nil
	}
	env.conn = env.srv.NewConn()
	t.Cleanup(func() { env.srv.Close() })
	return env
}

func (env *testEnv) cmd(s string) { env.conn.FromClient() <- s }

// expect reads messages until one has the given Cmd (or Error when cmd is
// empty), skipping anything else such as live samples.
func (env *testEnv) expect(t *testing.T, cmd string) map[string]interface{} {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case msg := <-env.conn.ToClient():
			var m map[string]interface{}
			require.NoError(t, json.Unmarshal([]byte(msg), &m), msg)
			if cmd == "" {
				if _, ok := m["Error"]; ok {
					return m
				}
				continue
			}
			if m["Cmd"] == cmd {
				return m
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %q", cmd)
			return nil
		}
	}
}

func TestServer_List(t *testing.T) {
	env := newTestEnv(t)

	env.cmd("list")
	m := env.expect(t, "List")
	ports := m["SerialPorts"].([]interface{})
	require.Len(t, ports, 2)
	assert.Equal(t, "/dev/ttyGLOVE", ports[0].(map[string]interface{})["Name"])
	assert.Equal(t, false, ports[0].(map[string]interface{})["IsOpen"])

	require.NoError(t, env.srv.OpenPort("/dev/ttyGLOVE", 9600))
	info, err := env.srv.ListPorts()
	require.NoError(t, err)
	assert.True(t, info[0].IsOpen)
	assert.Equal(t, 9600, info[0].Baud)
	assert.False(t, info[1].IsOpen)
}

func TestServer_Stream(t *testing.T) {
	env := newTestEnv(t)

	env.cmd("connect /dev/ttyGLOVE 115200")
	m := env.expect(t, "Open")
	assert.Equal(t, "/dev/ttyGLOVE", m["Port"])
	assert.EqualValues(t, 115200, m["Baud"])

	env.stub.data <- []byte("440,612,")
	env.stub.data <- []byte("618,548,528\nnoise\n")
	m = env.expect(t, "Sample")
	assert.Equal(t, []interface{}{440.0, 612.0, 618.0, 548.0, 528.0}, m["V"])

	env.cmd("status")
	m = env.expect(t, "Status")
	assert.Equal(t, map[string]interface{}{
		"Connected": true, "Reading": true, "Port": "/dev/ttyGLOVE", "Baud": 115200.0,
	}, m["Status"])

	env.cmd("connect /dev/ttyGLOVE 115200")
	m = env.expect(t, "OpenFail")
	assert.Equal(t, codeAlreadyConnected, m["ErrorCode"])

	env.cmd("pause")
	env.expect(t, "Paused")
	assert.False(t, env.srv.Status().Reading)
	env.cmd("resume")
	env.expect(t, "Resumed")
	assert.True(t, env.srv.Status().Reading)

	p := env.srv.current()
	require.NotNil(t, p)

	env.cmd("disconnect")
	env.expect(t, "Close")
	assert.Equal(t, device.Status{}, env.srv.Status())
	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("reader did not stop after disconnect")
	}
	assert.Nil(t, env.srv.current())

	// disconnect is idempotent
	env.cmd("disconnect")
	env.expect(t, "Close")
}

func TestServer_OpenFail(t *testing.T) {
	env := newTestEnv(t)

	env.cmd("open")
	assert.Equal(t, "missing port name", env.expect(t, "OpenFail")["Desc"])

	env.cmd("open /dev/ttyGLOVE fast")
	env.expect(t, "OpenFail")

	env.cmd("open /dev/ttyMISSING 115200")
	assert.Equal(t, codeDeviceOpen, env.expect(t, "OpenFail")["ErrorCode"])
	assert.False(t, env.srv.Status().Connected)

	// default baud
	env.cmd("open /dev/ttyGLOVE")
	assert.EqualValues(t, 115200, env.expect(t, "Open")["Baud"])
}

func TestServer_ReadError(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.srv.OpenPort("/dev/ttyGLOVE", 115200))

	env.stub.setFail(errors.New("device unplugged"))
	m := env.expect(t, "ReadError")
	assert.Equal(t, "device unplugged", m["Desc"])
	assert.False(t, env.srv.Status().Connected)
	assert.Nil(t, env.srv.current())

	info, err := env.srv.ListPorts()
	require.NoError(t, err)
	assert.False(t, info[0].IsOpen)

	// the port can be reopened after the failure
	env.stub.reset()
	require.NoError(t, env.srv.OpenPort("/dev/ttyGLOVE", 115200))
}

func TestServer_CloseWaitsForReader(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.srv.OpenPort("/dev/ttyGLOVE", 115200))
	p := env.srv.current()
	require.NotNil(t, p)

	require.NoError(t, env.srv.Close())
	select {
	case <-p.Done():
	default:
		t.Fatal("reader still running after Close")
	}
	assert.Nil(t, env.srv.current())
}

func TestServer_Commit(t *testing.T) {
	env := newTestEnv(t)

	env.cmd(`commit {"Samples":[{"T":1000,"V":[80,612,618,548,528]}],"Gesture":"A","UserID":"u1","SessionID":"s1",` +
		`"Baseline":[50,612,618,548,528],"MaxBend":[150,900,900,850,800]}`)
	m := env.expect(t, "Committed")
	assert.EqualValues(t, 1, m["Rows"])
	data, err := os.ReadFile(m["Path"].(string))
	require.NoError(t, err)
	assert.Contains(t, string(data), "1000,u1,s1,A,80,612,618,548,528,0.300,0.000,")

	env.cmd(`commit {"Samples":[],"Gesture":"A","UserID":"u1","SessionID":"s1","Baseline":[0,0,0,0,0],"MaxBend":[1,1,1,1,1]}`)
	assert.Equal(t, codeInvalidInput, env.expect(t, "")["ErrorCode"])

	env.cmd(`commit {not json`)
	assert.Equal(t, codeInvalidInput, env.expect(t, "")["ErrorCode"])

	env.cmd("recordings")
	assert.Equal(t, errNoIndex.Error(), env.expect(t, "")["Error"])
}

func TestServer_UnknownCommand(t *testing.T) {
	env := newTestEnv(t)
	env.cmd("sendjson {}")
	assert.Contains(t, env.expect(t, "")["Error"], "unknown command")
}

func TestServer_Deliver(t *testing.T) {
	srv := NewServer(Config{SendTimeout: time.Millisecond})
	defer srv.Close()

	// no clients: messages are dropped by the send loop, never block
	for i := 0; i < 100; i++ {
		assert.NoError(t, srv.Deliver(frame.Sample{Timestamp: int64(i)}))
	}
}
