// Package server exposes the glove bridge to UI clients: commands in, JSON
// replies and live samples out.
package server

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mastercactapus/glovelink/device"
	"github.com/mastercactapus/glovelink/frame"
	"github.com/mastercactapus/glovelink/record"
)

type Config struct {
	Device   *device.Conn
	Recorder *record.Recorder

	// Index is optional; without it the recordings command is unavailable.
	Index *record.Index

	// Reader is the template for every connection's frame reader. Sink and
	// OnError are filled in by the server.
	Reader frame.Config

	// Sinks receive samples in addition to the connected clients.
	Sinks []frame.Sink

	// SendTimeout bounds how long a sample may wait for the send loop.
	SendTimeout time.Duration

	DefaultBaud int
}

type Server struct {
	cid int32

	conns chan []*Conn

	port chan *Port

	dev       *device.Conn
	rec       *record.Recorder
	index     *record.Index
	readerCfg frame.Config
	sinks     []frame.Sink
	sendTO    time.Duration
	baud      int
	listPorts func() ([]device.PortInfo, error)
	log       *logrus.Entry

	input chan string
	send  chan string

	newConn   chan *Conn
	closeConn chan int32

	ctx          context.Context
	cancel       context.CancelFunc
	closeConnsCh chan struct{}
	closeOnce    sync.Once
}

func NewServer(cfg Config) *Server {
	if cfg.Device == nil {
		cfg.Device = device.NewConn(device.Config{})
	}
	if cfg.Recorder == nil {
		cfg.Recorder = record.NewRecorder(record.Config{})
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 50 * time.Millisecond
	}
	if cfg.DefaultBaud <= 0 {
		cfg.DefaultBaud = 115200
	}

	ctx, cancel := context.WithCancel(context.Background())
	srv := &Server{
		dev:       cfg.Device,
		rec:       cfg.Recorder,
		index:     cfg.Index,
		readerCfg: cfg.Reader,
		sinks:     cfg.Sinks,
		sendTO:    cfg.SendTimeout,
		baud:      cfg.DefaultBaud,
		listPorts: device.ListPorts,
		log:       logrus.WithField("component", "server"),

		input:        make(chan string),
		newConn:      make(chan *Conn),
		closeConn:    make(chan int32),
		closeConnsCh: make(chan struct{}),
		send:         make(chan string, 16),
		conns:        make(chan []*Conn, 1),
		port:         make(chan *Port, 1),
		ctx:          ctx,
		cancel:       cancel,
	}
	srv.conns <- nil
	srv.port <- nil

	go srv.loop()
	go srv.sendLoop()
	return srv
}

// Close disconnects the device, waits for the reader to stop and releases
// all clients.
func (srv *Server) Close() error {
	srv.closeOnce.Do(func() {
		srv.cancel()
		if p := srv.ClosePort(); p != nil {
			<-p.Done()
		}
		close(srv.closeConnsCh)
	})
	return nil
}

func (srv *Server) sendLoop() {
	for data := range srv.send {
		conns := <-srv.conns
		srv.conns <- conns

		for _, c := range conns {
			select {
			case c.send <- data:
			default:
				srv.log.WithField("conn", c.id).Debug("client too slow, dropping message")
			}
		}
	}
}

func (srv *Server) loop() {
	for {
		select {
		case <-srv.closeConnsCh:
			return
		case command := <-srv.input:
			srv.handleCommand(command)
		case c := <-srv.newConn:
			conns := <-srv.conns
			srv.conns <- append(conns, c)
		case id := <-srv.closeConn:
			origConns := <-srv.conns
			conns := origConns[:0]
			for _, c := range origConns {
				if c.id == id {
					continue
				}
				conns = append(conns, c)
			}
			srv.conns <- conns
		}
	}
}
