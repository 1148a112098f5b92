// cmd/serialmon/main.go
// Interactive monitor for a simulated serial port. Transmitted bytes land
// on stdout (or are looped back with -loopback); "inject" plays the role
// of the far end for reception.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/jangala-dev/serialx/serialx"
	"github.com/jangala-dev/serialx/simport"
)

var (
	baud      = flag.Uint("baud", 9600, "line rate")
	byteDelay = flag.Duration("byte-delay", 0, "simulated per-byte line delay")
	loopback  = flag.Bool("loopback", false, "wire TX back to RX instead of stdout")
)

type monitor struct {
	port *serialx.Port
	dev  *simport.Port
}

func (m *monitor) addCmds(sh *ishell.Shell) {
	sh.AddCmd(&ishell.Cmd{
		Name:    "write",
		Aliases: []string{"w"},
		Help:    "TEXT... send text out the port",
		Func: func(c *ishell.Context) {
			for i, arg := range c.Args {
				if i > 0 {
					m.port.WriteByte(' ')
				}
				m.port.WriteString(arg)
			}
			m.port.WriteString("\r\n")
		},
	})
	sh.AddCmd(&ishell.Cmd{
		Name:    "int",
		Aliases: []string{"i"},
		Help:    "N [BASE] send an integer rendered in BASE (default 10)",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("N required"))
				return
			}
			pr := serialx.NewPrinter(m.port)
			if len(c.Args) > 1 {
				base, err := strconv.ParseUint(c.Args[1], 10, 8)
				if err != nil || base < 2 || base > 36 {
					c.Err(fmt.Errorf("invalid BASE: %s", c.Args[1]))
					return
				}
				n, err := strconv.ParseUint(c.Args[0], 10, 64)
				if err != nil {
					c.Err(fmt.Errorf("invalid N: %v", err))
					return
				}
				pr.IntegerInBase(n, base)
			} else {
				n, err := strconv.ParseInt(c.Args[0], 10, 64)
				if err != nil {
					c.Err(fmt.Errorf("invalid N: %v", err))
					return
				}
				pr.Integer(n)
			}
			m.port.WriteString("\r\n")
		},
	})
	sh.AddCmd(&ishell.Cmd{
		Name:    "float",
		Aliases: []string{"f"},
		Help:    "X send a float (3 fractional digits)",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("X required"))
				return
			}
			x, err := strconv.ParseFloat(c.Args[0], 64)
			if err != nil {
				c.Err(fmt.Errorf("invalid X: %v", err))
				return
			}
			serialx.NewPrinter(m.port).Float(x)
			m.port.WriteString("\r\n")
		},
	})
	sh.AddCmd(&ishell.Cmd{
		Name:    "inject",
		Help:    "TEXT... deliver text as received bytes",
		Func: func(c *ishell.Context) {
			for i, arg := range c.Args {
				if i > 0 {
					m.dev.Inject([]byte{' '})
				}
				m.dev.Inject([]byte(arg))
			}
		},
	})
	sh.AddCmd(&ishell.Cmd{
		Name:    "read",
		Aliases: []string{"r"},
		Help:    "print everything in the receive buffer",
		Func: func(c *ishell.Context) {
			buf := make([]byte, 256)
			n := m.port.TryRead(buf)
			if n == 0 {
				c.Println("<empty>")
				return
			}
			c.Printf("%q\n", buf[:n])
		},
	})
	sh.AddCmd(&ishell.Cmd{
		Name: "flush",
		Help: "discard the receive buffer",
		Func: func(c *ishell.Context) {
			m.port.Flush()
		},
	})
	sh.AddCmd(&ishell.Cmd{
		Name:    "status",
		Aliases: []string{"st"},
		Help:    "show buffer and register state",
		Func: func(c *ishell.Context) {
			c.Printf("rx buffered: %d\n", m.port.Buffered())
			c.Printf("tx free:     %d\n", m.port.TxFree())
			c.Printf("divisor:     %d\n", m.dev.Divisor())
		},
	})
}

func main() {
	flag.Parse()

	cfg := simport.Config{ByteDelay: *byteDelay}
	if !*loopback {
		cfg.Sink = os.Stdout
	}
	dev := simport.New(cfg)
	defer dev.Close()

	port := serialx.New(dev)
	dev.Attach(port)
	if *loopback {
		// A single port wired to itself: Connect expects a pair, so loop
		// through a second port that echoes straight back.
		echoDev := simport.New(simport.Config{ByteDelay: *byteDelay})
		defer echoDev.Close()
		simport.Connect(dev, echoDev)
		echoPort := serialx.New(echoDev)
		echoDev.Attach(echoPort)
		if err := echoPort.Configure(serialx.Config{BaudRate: uint32(*baud)}); err != nil {
			fmt.Fprintln(os.Stderr, "configure echo:", err)
			os.Exit(1)
		}
		go func() {
			buf := make([]byte, 64)
			for {
				n, err := echoPort.ReadBlocking(context.Background(), buf)
				if err != nil {
					return
				}
				echoPort.Write(buf[:n])
			}
		}()
	}
	if err := port.Configure(serialx.Config{BaudRate: uint32(*baud)}); err != nil {
		fmt.Fprintln(os.Stderr, "configure:", err)
		os.Exit(1)
	}

	sh := ishell.New()
	sh.Println("serialx monitor — 'help' lists commands")
	sh.SetPrompt(fmt.Sprintf("[%d baud] > ", *baud))

	m := &monitor{port: port, dev: dev}
	m.addCmds(sh)
	sh.Run()
}
