package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"k5mirror/link"
	"k5mirror/serial"
	"k5mirror/web"
)

func viewCmd() *cobra.Command {
	var (
		device string
		baud   int
		listen string
	)

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Mirror the radio display to a browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			if device == "" {
				return fmt.Errorf("--port is required (try 'k5mirror ports')")
			}
			log := newLogger()

			cfg := serial.DefaultConfig(device)
			cfg.Baud = baud
			port, err := serial.Open(cfg)
			if err != nil {
				return err
			}

			hub := web.NewHub()
			l := link.New(port, log, hub)
			go l.Run()
			defer l.Close()

			srv := web.NewServer(hub, l.Tap, log)
			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe(listen) }()

			log.Info().Str("port", device).Int("baud", baud).Msg("link running")

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			select {
			case <-sig:
				log.Info().Msg("shutting down")
				return nil
			case err := <-errCh:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&device, "port", "p", "", "serial port (ex: /dev/ttyUSB0, COM3)")
	cmd.Flags().IntVarP(&baud, "baud", "b", 38400, "baud rate")
	cmd.Flags().StringVarP(&listen, "listen", "l", "127.0.0.1:8527", "viewer listen address")
	return cmd
}
