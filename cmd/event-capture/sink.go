package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"event-capture/internal/sink"
	"event-capture/internal/status"
)

// newSinkCmd creates the local debug collector. It speaks the same wire
// contract as the real collector so hooks can be exercised end to end
// without one: every accepted envelope is echoed to the terminal.
func newSinkCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "sink",
		Short: "Run a local stand-in collector that prints received events",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := status.NewPrinter(os.Stderr)

			srv := sink.New(func(evt sink.Received) {
				out.EventLine(evt.EventType, evt.ToolName, evt.BodySize, time.Now().Format("15:04:05"))
			})

			httpSrv := &http.Server{
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       10 * time.Second,
				WriteTimeout:      10 * time.Second,
				IdleTimeout:       60 * time.Second,
			}

			ln, err := net.Listen("tcp", "127.0.0.1:"+port)
			if err != nil {
				return err
			}
			actualPort := ln.Addr().(*net.TCPAddr).Port

			out.Banner(fmt.Sprintf("event-capture sink %s", version),
				fmt.Sprintf("Listening:  http://localhost:%d", actualPort),
				"Endpoints:  POST /events  GET /health  GET /stats",
				"Waiting for events...",
			)

			// Graceful shutdown.
			ctx, cancel := context.WithCancel(cmd.Context())
			var shutdownOnce sync.Once
			doShutdown := func() {
				cancel()
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				httpSrv.Shutdown(shutdownCtx)
			}

			go func() {
				sig := make(chan os.Signal, 1)
				signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
				defer signal.Stop(sig)
				select {
				case <-sig:
					out.Infof("shutting down...")
					shutdownOnce.Do(doShutdown)
				case <-ctx.Done():
				}
			}()

			if err := httpSrv.Serve(ln); err != nil && err != http.ErrServerClosed {
				return err
			}
			shutdownOnce.Do(doShutdown)
			return nil
		},
	}

	cmd.Flags().StringVar(&port, "port", envOrDefaultPort(), "listen port (0 picks a free one)")

	return cmd
}

func envOrDefaultPort() string {
	if v := os.Getenv("EVENT_CAPTURE_SINK_PORT"); v != "" {
		return v
	}
	return "4000"
}
