package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/coach/coach"
	"github.com/tailored-agentic-units/coach/mcpserver"
	"github.com/tailored-agentic-units/coach/rpc"
	"github.com/tailored-agentic-units/coach/server"
)

var (
	serveListen  string
	serveOrigins []string
	serveMCP     bool
	serveIngest  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Serve the JSON API used by the browser UI under /api, the Connect
service under /coach.v1.CoachService/ and, with --mcp, the MCP streamable
HTTP transport under /mcp.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (overrides config)")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "origin", nil, "Allowed CORS origin (repeatable; default any)")
	serveCmd.Flags().BoolVar(&serveMCP, "mcp", true, "Serve MCP over streamable HTTP at /mcp")
	serveCmd.Flags().BoolVar(&serveIngest, "ingest", true, "Index the knowledge base at startup when the index is empty")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := newCoach(ctx, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	if serveIngest {
		report, err := c.Ingest(ctx, false)
		switch {
		case errors.Is(err, coach.ErrRetrievalDisabled):
			logger.Warn("knowledge retrieval disabled; answering without context")
		case err != nil:
			logger.Error("knowledge ingestion failed", "error", err)
		default:
			logger.Info("knowledge base ready", "documents", report.Documents, "chunks", report.Chunks, "skipped", report.Skipped)
		}
	}

	rpcPath, rpcHandler := rpc.NewHandler(c)
	opts := []server.Option{
		server.WithLogger(logger),
		server.WithMount(rpcPath+"*method", rpcHandler),
	}
	if len(serveOrigins) > 0 {
		opts = append(opts, server.WithAllowedOrigins(serveOrigins...))
	}
	if serveMCP {
		opts = append(opts, server.WithMount("/mcp", mcpserver.Handler(mcpserver.New(c, version))))
	}

	addr := c.Config().Listen
	if serveListen != "" {
		addr = serveListen
	}

	return server.New(c, opts...).Run(ctx, addr)
}
