package main

import (
	"context"
	"os"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonwraymond/gokernel/kernel"
	"github.com/jonwraymond/gokernel/protocol"
)

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the kernel as an MCP server on stdio",
		Long: `Serves execute, complete, inspect, is_complete and kernel_info tools over
the Model Context Protocol on stdin/stdout. Output written by executed code
is captured and returned with each execute call.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runMCP(cmd.Context())
		},
	}
}

func (a *app) runMCP(ctx context.Context) error {
	rec := protocol.NewRecorder()
	k, err := a.newKernel(rec, a.cfg.Kernel.Redirect, nil, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := k.Close(); err != nil {
			a.logger.Warn("closing kernel", zap.Error(err))
		}
	}()

	// The protocol owns the real stdout; user output goes to the redirector.
	out := os.Stdout
	if r := k.Redirector(); r != nil {
		out, _ = r.Original()
	} else {
		a.logger.Warn("stdout is not redirected; output written by executed code will corrupt the MCP stream")
	}

	s := newMCPSession(k, rec, a.logger.Named("mcp"))
	a.logger.Info("serving MCP on stdio", zap.String("kernel", kernel.Version))
	return s.server().Run(ctx, &mcp.IOTransport{Reader: os.Stdin, Writer: out})
}

// mcpSession exposes one kernel as MCP tools. Tool calls are serialized
// because the kernel and its redirector serve one submission at a time.
type mcpSession struct {
	mu      sync.Mutex
	k       *kernel.Kernel
	rec     *protocol.Recorder
	logger  *zap.Logger
	counter int
}

func newMCPSession(k *kernel.Kernel, rec *protocol.Recorder, logger *zap.Logger) *mcpSession {
	return &mcpSession{k: k, rec: rec, logger: logger}
}

type executeInput struct {
	Code string `json:"code" jsonschema:"Go source, a %magic, a !shell escape or a ?query"`
}

type executeOutput struct {
	Reply  protocol.Reply `json:"reply"`
	Stdout string         `json:"stdout"`
	Stderr string         `json:"stderr"`
	Result string         `json:"result,omitempty"`
}

type cursorInput struct {
	Code      string `json:"code" jsonschema:"the source being edited"`
	CursorPos int    `json:"cursor_pos,omitempty" jsonschema:"byte offset of the cursor; zero means the end of code"`
}

type kernelInfoInput struct{}

func (s *mcpSession) server() *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: kernel.Implementation, Version: kernel.Version}, nil)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "execute",
		Description: "Execute a Go submission. Declarations persist between calls; the value of a trailing expression is returned as result.",
	}, s.execute)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "complete",
		Description: "Complete the identifier ending at the cursor.",
	}, s.complete)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "inspect",
		Description: "Describe the symbol ending at the cursor.",
	}, s.inspect)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "is_complete",
		Description: "Report whether code is complete, incomplete or invalid.",
	}, s.isComplete)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "kernel_info",
		Description: "Describe the kernel and the language it serves.",
	}, s.kernelInfo)
	return srv
}

func (s *mcpSession) execute(ctx context.Context, _ *mcp.CallToolRequest, in executeInput) (*mcp.CallToolResult, executeOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counter++
	reply := s.k.Execute(ctx, s.counter, in.Code)
	msgs := s.rec.Drain()

	out := executeOutput{
		Reply:  reply,
		Stdout: protocol.StreamText(msgs, protocol.StreamStdout),
		Stderr: protocol.StreamText(msgs, protocol.StreamStderr),
	}
	for _, m := range msgs {
		if m.Type != protocol.MessageExecuteResult {
			continue
		}
		if data, ok := m.Content["data"].(protocol.MIMEBundle); ok {
			out.Result, _ = data[protocol.MIMEPlain].(string)
		}
	}
	s.logger.Debug("execute", zap.Int("counter", s.counter), zap.String("status", string(reply.Status)))
	return nil, out, nil
}

func (s *mcpSession) complete(_ context.Context, _ *mcp.CallToolRequest, in cursorInput) (*mcp.CallToolResult, protocol.CompleteReply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return nil, s.k.Complete(in.Code, cursorOf(in)), nil
}

func (s *mcpSession) inspect(ctx context.Context, _ *mcp.CallToolRequest, in cursorInput) (*mcp.CallToolResult, protocol.InspectReply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return nil, s.k.Inspect(ctx, in.Code, cursorOf(in)), nil
}

func (s *mcpSession) isComplete(_ context.Context, _ *mcp.CallToolRequest, in executeInput) (*mcp.CallToolResult, protocol.IsCompleteReply, error) {
	return nil, s.k.IsComplete(in.Code), nil
}

func (s *mcpSession) kernelInfo(_ context.Context, _ *mcp.CallToolRequest, _ kernelInfoInput) (*mcp.CallToolResult, protocol.KernelInfo, error) {
	return nil, s.k.KernelInfo(), nil
}

func cursorOf(in cursorInput) int {
	if in.CursorPos <= 0 {
		return len(in.Code)
	}
	return in.CursorPos
}
