// Package mcp provides an MCP (Model Context Protocol) server exposing the
// understanding pipeline as tools.
package mcp

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/parley/pkg/bot"
	"github.com/papercomputeco/parley/pkg/brain"
	"github.com/papercomputeco/parley/pkg/utils"
)

type Config struct {
	// Bot computes understandings for the understand tool
	Bot *bot.Bot

	// Brain is read by the conversation tool
	Brain *brain.Brain

	// Noop for empty MCP server
	Noop bool

	// Logger is the configured slog logger
	Logger *slog.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the understand and conversation
// tools.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "parley",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if !c.Noop {
		if c.Bot == nil {
			return nil, errors.New("bot is required")
		}
		if c.Brain == nil {
			return nil, errors.New("brain is required")
		}
		if c.Logger == nil {
			return nil, errors.New("logger is required")
		}

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        understandToolName,
			Description: understandDescription,
		}, s.handleUnderstand)

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        conversationToolName,
			Description: conversationDescription,
		}, s.handleConversation)
	}

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}
