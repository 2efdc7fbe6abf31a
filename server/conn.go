package server

import "sync/atomic"

// Conn is one UI client.
type Conn struct {
	id   int32
	srv  *Server
	send chan string
}

func (srv *Server) NewConn() *Conn {
	conn := &Conn{
		id:   atomic.AddInt32(&srv.cid, 1),
		srv:  srv,
		send: make(chan string, 256),
	}
	select {
	case srv.newConn <- conn:
	case <-srv.closeConnsCh:
	}

	return conn
}

func (c *Conn) FromClient() chan<- string { return c.srv.input }
func (c *Conn) ToClient() <-chan string   { return c.send }
func (c *Conn) Done() <-chan struct{}     { return c.srv.closeConnsCh }

func (c *Conn) Close() {
	select {
	case c.srv.closeConn <- c.id:
	case <-c.srv.closeConnsCh:
	}
}
