package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"k5mirror/engine"
	"k5mirror/link"
	"k5mirror/serial"
)

// tapWaiter counts terminal button outcomes so the command can exit once
// every queued press/release has been resolved.
type tapWaiter struct {
	mu        sync.Mutex
	remaining int
	dropped   []string
	done      chan struct{}
}

func newTapWaiter(events int) *tapWaiter {
	return &tapWaiter{remaining: events, done: make(chan struct{})}
}

func (w *tapWaiter) Emit(ev engine.Event) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.remaining == 0 {
		return
	}

	switch e := ev.(type) {
	case engine.ButtonAcked:
		w.remaining--
	case engine.ButtonDropped:
		w.dropped = append(w.dropped, fmt.Sprintf("%s: %s", e.Key, e.Reason))
		w.remaining--
	default:
		return
	}

	if w.remaining == 0 {
		close(w.done)
	}
}

func tapCmd() *cobra.Command {
	var (
		device  string
		baud    int
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "tap KEY...",
		Short: "Send button taps to the radio",
		Long: `Tap sends a press/release pair for each named key and waits for
the radio to acknowledge them. Keys: ` + strings.Join(engine.KeyNames(), ", ") + `.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if device == "" {
				return fmt.Errorf("--port is required (try 'k5mirror ports')")
			}

			// Validate before opening the port.
			for _, key := range args {
				if _, err := engine.KeyCode(key); err != nil {
					return err
				}
			}
			log := newLogger()

			cfg := serial.DefaultConfig(device)
			cfg.Baud = baud
			port, err := serial.Open(cfg)
			if err != nil {
				return err
			}

			waiter := newTapWaiter(2 * len(args)) // press + release per key
			l := link.New(port, log, waiter)
			go l.Run()
			defer l.Close()

			for _, key := range args {
				if err := l.Tap(key); err != nil {
					return err
				}
			}

			select {
			case <-waiter.done:
			case <-time.After(timeout):
				return fmt.Errorf("timed out after %v waiting for acks", timeout)
			}

			if len(waiter.dropped) > 0 {
				return fmt.Errorf("dropped: %s", strings.Join(waiter.dropped, "; "))
			}
			fmt.Printf("tapped %s\n", strings.Join(args, " "))
			return nil
		},
	}

	cmd.Flags().StringVarP(&device, "port", "p", "", "serial port (ex: /dev/ttyUSB0, COM3)")
	cmd.Flags().IntVarP(&baud, "baud", "b", 38400, "baud rate")
	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Second, "overall ack deadline")
	return cmd
}
