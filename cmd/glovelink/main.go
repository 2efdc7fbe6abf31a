package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/mastercactapus/glovelink/config"
	"github.com/mastercactapus/glovelink/device"
	"github.com/mastercactapus/glovelink/frame"
	"github.com/mastercactapus/glovelink/mqttsink"
	"github.com/mastercactapus/glovelink/record"
	"github.com/mastercactapus/glovelink/server"
)

var (
	configPath = flag.String("config", "", "Path to a KEY=VALUE config file.")
	addr       = flag.String("addr", "", "HTTP listen address (overrides LISTEN_ADDR).")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("load config")
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}
	log.SetLevel(cfg.LogLevel)

	var index *record.Index
	if cfg.IndexPath != "" {
		index, err = record.OpenIndex(cfg.IndexPath)
		if err != nil {
			log.WithError(err).Fatal("open recordings index")
		}
		defer index.Close()
	}

	var sinks []frame.Sink
	if cfg.MQTTBroker != "" {
		client, err := mqttsink.Connect(cfg.MQTTBroker, cfg.MQTTClientID)
		if err != nil {
			log.WithError(err).WithField("broker", cfg.MQTTBroker).Fatal("connect mqtt")
		}
		defer client.Disconnect(250)
		sinks = append(sinks, mqttsink.Sink{Client: client, Topic: cfg.MQTTTopic, Timeout: cfg.SinkTimeout})
		log.WithFields(log.Fields{"broker": cfg.MQTTBroker, "topic": cfg.MQTTTopic}).Info("publishing samples")
	}

	srv := server.NewServer(server.Config{
		Device: device.NewConn(device.Config{ReadTimeout: cfg.ReadTimeout}),
		Recorder: record.NewRecorder(record.Config{
			Dir:         cfg.RecordingsDir,
			Annotations: record.Annotations{GloveFit: cfg.GloveFit, Notes: cfg.Notes},
			Index:       index,
		}),
		Index: index,
		Reader: frame.Config{
			Yield:     cfg.Yield,
			PausePoll: cfg.PausePoll,
		},
		Sinks:       sinks,
		SendTimeout: cfg.SinkTimeout,
		DefaultBaud: cfg.DefaultBaud,
	})
	defer srv.Close()

	// TODO: origin
	var upgrader websocket.Upgrader
	upgrader.CheckOrigin = func(req *http.Request) bool { return true }

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ws", func(w http.ResponseWriter, req *http.Request) {
		ws, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			log.WithError(err).Error("websocket upgrade")
			return
		}
		serveClient(srv, ws)
	})

	httpSrv := &http.Server{Addr: cfg.ListenAddr, Handler: mux}
	go func() {
		log.WithField("addr", cfg.ListenAddr).Info("listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("http server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("http shutdown")
	}
}

// serveClient pumps messages between one websocket and the server until
// either side goes away.
func serveClient(srv *server.Server, ws *websocket.Conn) {
	defer ws.Close()
	conn := srv.NewConn()
	defer conn.Close()

	cancel := make(chan struct{})
	defer close(cancel)
	go func() {
		defer ws.Close()
		for {
			select {
			case <-conn.Done():
				return
			case <-cancel:
				return
			case msg := <-conn.ToClient():
				err := ws.WriteMessage(websocket.TextMessage, []byte(msg))
				if err != nil {
					log.WithError(err).Debug("write websocket message")
					return
				}
			}
		}
	}()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			log.WithError(err).Debug("read websocket message")
			return
		}
		select {
		case <-conn.Done():
			return
		case conn.FromClient() <- string(data):
		}
	}
}
