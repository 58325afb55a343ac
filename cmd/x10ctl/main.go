package main

import (
	"bufio"
	"os"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-tty"
	"gopkg.in/alecthomas/kingpin.v2"
	"periph.io/x/conn/v3/physic"
	periphspi "periph.io/x/conn/v3/spi"

	x10 "github.com/flicker581/X10-raspberry"
	"github.com/flicker581/X10-raspberry/cm11"
	"github.com/flicker581/X10-raspberry/spi"
)

var (
	app = kingpin.New("x10ctl", "Control an X10 powerline-carrier bridge over SPI")

	devicePath = app.Flag("device", "Path to the SPI device").Required().String()
	speedHz    = app.Flag("speed", "SPI clock frequency in Hz").Default("1000000").Uint()
	modeBits   = app.Flag("mode", "SPI mode 0-3 (CPOL/CPHA combination)").Default("0").Uint8()
	lsbFirst   = app.Flag("lsb-first", "Shift LSB first").Bool()
	noCS       = app.Flag("no-cs", "Don't toggle a chip-select line").Bool()
	halfDuplex = app.Flag("half-duplex", "Use 3-wire half-duplex mode").Bool()
	fireForget = app.Flag("ff", "Return as soon as the coprocessor has SEEN the request, don't wait for INPROGRESS").Bool()
	verbose    = app.Flag("v", "Increase log verbosity (repeatable)").Short('v').Counter()

	pollCmd = app.Command("poll", "Issue a single poll and print the coprocessor's reply")

	listenCmd    = app.Command("listen", "Continuously poll and decode incoming X10 traffic")
	listenRawCmd = app.Command("listenraw", "Continuously poll and print the raw decoded bitstream")

	cm11Cmd          = app.Command("cm11", "Run the CM11 serial-dialect emulator")
	cm11SerialDevice = cm11Cmd.Flag("serial-device", "Real TTY to bind instead of stdio").String()
	cm11Baud         = cm11Cmd.Flag("baud", "Serial baud rate for --serial-device").Default("4800").Uint()

	xmitCmd     = app.Command("xmit", "Encode and transmit a single command (default)").Default()
	xmitCommand = xmitCmd.Arg("command", "X10 command string, e.g. A1:On").Required().String()
)

func main() {
	cmd := kingpin.MustParse(app.Parse(os.Args[1:]))

	logger := charmlog.NewWithOptions(colorable.NewColorableStdout(), charmlog.Options{
		Level: verbosityToLevel(*verbose),
	})

	mode := periphspi.Mode(*modeBits)
	if *lsbFirst {
		mode |= periphspi.LSBFirst
	}
	if *noCS {
		mode |= periphspi.NoCS
	}
	if *halfDuplex {
		mode |= periphspi.HalfDuplex
	}

	dev, err := spi.OpenPeriphDevice(*devicePath, physic.Frequency(*speedHz)*physic.Hertz, mode)
	if err != nil {
		logger.Fatalf("opening SPI device: %v", err)
	}
	defer dev.Close()

	transport := &spi.Transport{Device: dev}

	switch cmd {
	case pollCmd.FullCommand():
		runPoll(logger, transport)
	case listenCmd.FullCommand():
		runListen(logger, transport, true)
	case listenRawCmd.FullCommand():
		runListen(logger, transport, false)
	case cm11Cmd.FullCommand():
		runCM11(logger, transport)
	case xmitCmd.FullCommand():
		runXmit(logger, transport)
	}
}

func verbosityToLevel(v int) charmlog.Level {
	switch {
	case v >= 2:
		return charmlog.DebugLevel
	case v == 1:
		return charmlog.InfoLevel
	default:
		return charmlog.WarnLevel
	}
}

func runPoll(logger *charmlog.Logger, t *spi.Transport) {
	reply, err := t.Poll()
	if err != nil {
		logger.Fatalf("poll failed: %v", err)
	}
	logger.Infof("reply: code=%s id=%d bits=%d", spi.ProgressName(reply.RrCode), reply.RrID, reply.Data.Tail)
}

func runListen(logger *charmlog.Logger, t *spi.Transport, decode bool) {
	tty, err := tty.Open()
	if err != nil {
		logger.Fatalf("opening tty: %v", err)
	}
	defer tty.Close()

	stop := make(chan struct{})
	go func() {
		tty.ReadRune()
		close(stop)
	}()

	decoder := x10.NewDecoder(x10.ConsumerFunc(func(cmd x10.Command) {
		logger.Infof("decoded: %s", x10.Format(cmd))
	}))
	lastTail := 0

	logger.Info("listening, press any key to stop")
	for {
		select {
		case <-stop:
			return
		default:
		}
		reply, err := t.Poll()
		if err != nil {
			logger.Errorf("poll failed: %v", err)
			time.Sleep(200 * time.Millisecond)
			continue
		}
		if reply.Data.Tail < lastTail {
			lastTail = 0
		}
		if decode {
			for i := lastTail; i < reply.Data.Tail; i++ {
				decoder.Feed(reply.Data.Bit(i))
			}
		} else if reply.Data.Tail > lastTail {
			var raw strings.Builder
			for i := lastTail; i < reply.Data.Tail; i++ {
				raw.WriteByte('0' + reply.Data.Bit(i))
			}
			logger.Infof("raw bits[%d:%d]: %s", lastTail, reply.Data.Tail, raw.String())
		}
		lastTail = reply.Data.Tail
		time.Sleep(200 * time.Millisecond)
	}
}

func runCM11(logger *charmlog.Logger, t *spi.Transport) {
	if *cm11SerialDevice != "" {
		peer, err := cm11.NewSerialPeer(*cm11SerialDevice, *cm11Baud)
		if err != nil {
			logger.Fatalf("opening serial device: %v", err)
		}
		defer peer.Close()
		if err := cm11.Run(peer, t, logger); err != nil {
			logger.Fatalf("cm11 emulator exited: %v", err)
		}
		return
	}

	peer := stdioPeer{r: bufio.NewReader(os.Stdin), w: os.Stdout}
	if err := cm11.Run(peer, t, logger); err != nil {
		logger.Fatalf("cm11 emulator exited: %v", err)
	}
}

// stdioPeer adapts buffered stdin plus stdout into the io.ReadWriter cm11.Run
// expects, since os.Stdin itself isn't safely concurrently readable the way
// a dedicated TTY is.
type stdioPeer struct {
	r *bufio.Reader
	w *os.File
}

func (p stdioPeer) Read(buf []byte) (int, error)  { return p.r.Read(buf) }
func (p stdioPeer) Write(buf []byte) (int, error) { return p.w.Write(buf) }

func runXmit(logger *charmlog.Logger, t *spi.Transport) {
	cmd, err := x10.Parse(strings.TrimSpace(*xmitCommand))
	if err != nil {
		logger.Fatalf("parsing command: %v", err)
	}
	if err := cmd.Validate(); err != nil {
		logger.Fatalf("invalid command: %v", err)
	}
	bs, err := x10.EncodeCommand(cmd)
	if err != nil {
		logger.Fatalf("encoding command: %v", err)
	}

	target := uint8(spi.ResponseInProgress)
	if *fireForget {
		target = spi.ResponseSeen
	}
	reply, err := t.Submit(bs, target)
	if err != nil {
		logger.Fatalf("submit failed: %v", err)
	}
	logger.Infof("transmitted %s, coprocessor reports %s", x10.Format(cmd), spi.ProgressName(reply.RrCode))
}
