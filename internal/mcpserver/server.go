// Package mcpserver publishes the tool registry over the Model Context Protocol.
package mcpserver

import (
	"context"
	"log"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/stellarlinkco/planit/internal/tools"
)

const (
	ServerName    = "planit"
	ServerVersion = "1.0.0"
)

// Executor runs a tool and reports failures inside the result map.
type Executor interface {
	Execute(ctx context.Context, name string, args map[string]any) map[string]any
}

// New builds an MCP server exposing every tool in reg. Calls are dispatched
// through exec so they share argument coercion, timeouts and metrics with
// the reasoning loop.
func New(reg *tools.Registry, exec Executor) *server.MCPServer {
	s := server.NewMCPServer(ServerName, ServerVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	for _, spec := range reg.Describe() {
		s.AddTool(toMCPTool(spec), handler(spec.Name, exec))
	}
	log.Printf("[mcp] registered tools: %s", strings.Join(reg.Names(), ", "))
	return s
}

// ServeStdio blocks serving s on stdin/stdout.
func ServeStdio(s *server.MCPServer) error {
	log.Printf("[mcp] serving tools over stdio")
	return server.ServeStdio(s)
}

func toMCPTool(spec tools.Spec) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(spec.Description)}
	for _, p := range spec.Params {
		popts := []mcp.PropertyOption{mcp.Description(p.Description)}
		if p.Required {
			popts = append(popts, mcp.Required())
		}
		switch p.Type {
		case tools.TypeInteger, tools.TypeNumber:
			opts = append(opts, mcp.WithNumber(p.Name, popts...))
		case tools.TypeBoolean:
			opts = append(opts, mcp.WithBoolean(p.Name, popts...))
		case tools.TypeObject:
			opts = append(opts, mcp.WithObject(p.Name, popts...))
		case tools.TypeArray:
			opts = append(opts, mcp.WithArray(p.Name, popts...))
		default:
			if len(p.Enum) > 0 {
				popts = append(popts, mcp.Enum(p.Enum...))
			}
			opts = append(opts, mcp.WithString(p.Name, popts...))
		}
	}
	return mcp.NewTool(spec.Name, opts...)
}

func handler(name string, exec Executor) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		result := exec.Execute(ctx, name, args)
		if msg, failed := tools.IsError(result); failed {
			return mcp.NewToolResultError(msg), nil
		}
		return mcp.NewToolResultStructuredOnly(result), nil
	}
}
