// cmd/serialx_selftest/main.go
// Cross-port integrity test over two connected simulated ports: each side
// streams a pseudo-random payload at the other and both SHA-1 digests must
// match. Run with -logtostderr to see progress.

package main

import (
	"bytes"
	"context"
	"crypto/sha1"
	"errors"
	"flag"
	"math/rand"
	"os"
	"time"

	"github.com/golang/glog"

	"github.com/jangala-dev/serialx/serialx"
	"github.com/jangala-dev/serialx/simport"
)

var (
	totalBytes = flag.Int("bytes", 64*1024, "payload size per direction")
	fullDuplex = flag.Bool("duplex", true, "run both directions at once")
	byteDelay  = flag.Duration("byte-delay", 0, "simulated per-byte line delay")
	timeout    = flag.Duration("timeout", 30*time.Second, "per-run deadline")
	seed       = flag.Int64("seed", 1, "payload PRNG seed")
)

func payload(seed int64, n int) []byte {
	r := rand.New(rand.NewSource(seed))
	p := make([]byte, n)
	r.Read(p)
	return p
}

// sendAll writes p and waits for the line to drain.
func sendAll(ctx context.Context, port *serialx.Port, p []byte) error {
	if _, err := port.Write(p); err != nil {
		return err
	}
	return port.Drain(ctx)
}

// recvExact reads exactly n bytes or fails with the context error.
func recvExact(ctx context.Context, port *serialx.Port, n int) ([]byte, error) {
	out := make([]byte, n)
	if _, err := port.ReadFullBlocking(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func runDirection(ctx context.Context, name string, tx, rx *serialx.Port, data []byte) error {
	errCh := make(chan error, 1)
	go func() { errCh <- sendAll(ctx, tx, data) }()

	start := time.Now()
	got, err := recvExact(ctx, rx, len(data))
	if err != nil {
		return err
	}
	if err := <-errCh; err != nil {
		return err
	}

	want := sha1.Sum(data)
	have := sha1.Sum(got)
	if !bytes.Equal(want[:], have[:]) {
		for i := range data {
			if data[i] != got[i] {
				glog.Errorf("%s: first mismatch at offset %d: sent %#02x got %#02x",
					name, i, data[i], got[i])
				break
			}
		}
		glog.Errorf("%s: digest mismatch (%d bytes)", name, len(data))
		return errMismatch
	}
	elapsed := time.Since(start)
	glog.Infof("%s: %d bytes ok in %v (%.0f B/s), sha1 %x",
		name, len(data), elapsed, float64(len(data))/elapsed.Seconds(), have)
	return nil
}

var errMismatch = errors.New("integrity mismatch")

func main() {
	flag.Parse()
	defer glog.Flush()

	a := simport.New(simport.Config{ByteDelay: *byteDelay})
	b := simport.New(simport.Config{ByteDelay: *byteDelay})
	defer a.Close()
	defer b.Close()
	simport.Connect(a, b)

	pa := serialx.New(a)
	a.Attach(pa)
	pb := serialx.New(b)
	b.Attach(pb)
	if err := pa.Configure(serialx.Config{BaudRate: 115200}); err != nil {
		glog.Fatalf("configure A: %v", err)
	}
	if err := pb.Configure(serialx.Config{BaudRate: 115200}); err != nil {
		glog.Fatalf("configure B: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	dataAB := payload(*seed, *totalBytes)
	dataBA := payload(*seed+1, *totalBytes)

	var failed bool
	if *fullDuplex {
		errCh := make(chan error, 2)
		go func() { errCh <- runDirection(ctx, "A->B", pa, pb, dataAB) }()
		go func() { errCh <- runDirection(ctx, "B->A", pb, pa, dataBA) }()
		for i := 0; i < 2; i++ {
			if err := <-errCh; err != nil {
				glog.Errorf("duplex run: %v", err)
				failed = true
			}
		}
	} else {
		if err := runDirection(ctx, "A->B", pa, pb, dataAB); err != nil {
			glog.Errorf("A->B: %v", err)
			failed = true
		}
		if err := runDirection(ctx, "B->A", pb, pa, dataBA); err != nil {
			glog.Errorf("B->A: %v", err)
			failed = true
		}
	}

	if failed {
		glog.Flush()
		os.Exit(1)
	}
	glog.Info("selftest passed")
}
