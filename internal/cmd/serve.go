package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/apibind/apibind/internal/iocontext"
	"github.com/apibind/apibind/internal/mockapi"
)

func newServeCmd() *cobra.Command {
	var (
		addr string
		dir  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a mock API from fixture files",
		Long: `Serve routes.json routes with fixture responses from mock_data.json
(or mock.json). A websocket echo endpoint is available at /ws/echo.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			server, err := mockapi.Load(dir)
			if err != nil {
				return err
			}

			listener, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}

			httpServer := &http.Server{
				Handler:           server.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			iocontext.Errf(ctx, "Serving mock API on http://%s (%d fixture keys)\n", listener.Addr(), len(server.Keys()))

			errCh := make(chan error, 1)
			go func() { errCh <- httpServer.Serve(listener) }()

			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = httpServer.Shutdown(shutdownCtx)
				return nil
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8338", "Listen address")
	cmd.Flags().StringVar(&dir, "dir", ".", "Directory containing routes.json and fixtures")
	return cmd
}
