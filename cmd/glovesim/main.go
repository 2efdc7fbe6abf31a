// Command glovesim writes simulated glove frames to a serial port, usually
// one end of a virtual null-modem pair.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/mastercactapus/glovelink/device"
	"github.com/mastercactapus/glovelink/frame"
)

var (
	portName  = flag.String("port", "", "Serial port to write to.")
	baud      = flag.Int("baud", 115200, "Baud rate.")
	rate      = flag.Int("rate", 50, "Samples per second.")
	letters   = flag.String("letters", "A,B,C,D,E,V,W,Y,I", "Comma-separated letters to cycle through.")
	hold      = flag.Duration("hold", 4*time.Second, "How long each letter is held, including the transition.")
	blend     = flag.Duration("blend", 500*time.Millisecond, "Transition time between letters.")
	noise     = flag.Float64("noise", 8, "Maximum sensor noise in counts.")
	timestamp = flag.Bool("timestamp", false, "Prefix frames with a device timestamp.")
)

func main() {
	flag.Parse()
	if *portName == "" {
		log.Fatal("-port is required")
	}
	if *rate <= 0 {
		log.Fatal("-rate must be positive")
	}

	seq, err := newSequence(*letters, *rate, *hold, *blend, *noise)
	if err != nil {
		log.WithError(err).Fatal("invalid letters")
	}

	p, err := device.OpenSerial(*portName, *baud)
	if err != nil {
		log.WithError(err).WithField("port", *portName).Fatal("open port")
	}
	defer p.Close()
	log.WithFields(log.Fields{"port": *portName, "baud": *baud, "rate": *rate}).Info("sending frames")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	t := time.NewTicker(time.Second / time.Duration(*rate))
	defer t.Stop()

	start := time.Now()
	var count int
	for {
		select {
		case <-quit:
			log.WithField("frames", count).Info("stopped")
			return
		case <-t.C:
		}

		letter, v := seq.Next()
		line := frame.Format(frame.Sample{Timestamp: time.Since(start).Milliseconds(), Channels: v}, *timestamp)
		if _, err := p.Write([]byte(line)); err != nil {
			log.WithError(err).Error("write frame")
			return
		}

		count++
		if count%*rate == 0 {
			log.WithFields(log.Fields{"frames": count, "letter": letter}).Debug(strings.TrimSpace(line))
		}
	}
}

func newSequence(list string, rate int, hold, blend time.Duration, noise float64) (*sequence, error) {
	var ls []string
	for _, l := range strings.Split(list, ",") {
		l = strings.ToUpper(strings.TrimSpace(l))
		if _, ok := poses[l]; !ok {
			return nil, fmt.Errorf("no pose for letter %q", l)
		}
		ls = append(ls, l)
	}

	blendN := max(int(blend.Seconds()*float64(rate)), 1)
	holdN := max(int(hold.Seconds()*float64(rate))-blendN, 0)
	return &sequence{
		letters: ls,
		hold:    holdN,
		blend:   blendN,
		noise:   noise,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}
