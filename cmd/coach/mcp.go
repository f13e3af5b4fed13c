package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/coach/mcpserver"
)

var (
	mcpTransport string
	mcpAddr      string
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the coach as MCP tools",
	Long: `Serve the coach to MCP clients over stdio (default) or the
streamable HTTP transport.`,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&mcpTransport, "transport", "stdio", "Transport mode: stdio or http")
	mcpCmd.Flags().StringVar(&mcpAddr, "addr", ":8051", "HTTP listen address (only used with --transport http)")
}

func runMCP(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := newCoach(ctx, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	srv := mcpserver.New(c, version)

	switch mcpTransport {
	case "stdio":
		logger.Info("coach MCP server starting", "transport", "stdio")
		return srv.Run(ctx, &mcp.StdioTransport{})
	case "http":
		httpSrv := &http.Server{
			Addr:              mcpAddr,
			Handler:           mcpserver.Handler(srv),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			httpSrv.Shutdown(shutdownCtx)
		}()

		logger.Info("coach MCP server listening", "addr", mcpAddr)
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	default:
		return fmt.Errorf("unknown transport %q (use stdio or http)", mcpTransport)
	}
}
