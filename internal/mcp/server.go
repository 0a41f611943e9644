// Package mcp exposes the detector as Model Context Protocol tools over stdio.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"doc_detector/internal/aidetect"
	"doc_detector/internal/hybrid"
	"doc_detector/internal/ingest"
	"doc_detector/internal/logging"
	"doc_detector/internal/report"
)

type Options struct {
	Name    string
	Version string
	Base    aidetect.Config
	Scorer  hybrid.Scorer
	Hybrid  hybrid.Settings
	Logger  *slog.Logger
}

type Server struct {
	base      aidetect.Config
	heuristic *hybrid.Analyzer
	hybrid    *hybrid.Analyzer
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	name := opts.Name
	if name == "" {
		name = "aidd"
	}
	version := opts.Version
	if version == "" {
		version = "dev"
	}
	base := opts.Base
	if base.Weights == nil {
		base = aidetect.DefaultConfig()
	}

	s := &Server{
		base:      base,
		heuristic: hybrid.NewAnalyzer(nil, opts.Hybrid, logger),
		mcpServer: server.NewMCPServer(name, version, server.WithToolCapabilities(false)),
		logger:    logger,
	}
	if opts.Scorer != nil {
		s.hybrid = hybrid.NewAnalyzer(opts.Scorer, opts.Hybrid, logger)
	}
	s.registerTools()
	return s
}

func analysisOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("preset",
			mcp.Description("Weight preset"),
			mcp.Enum(aidetect.PresetNames()...),
		),
		mcp.WithNumber("threshold",
			mcp.Description("Decision threshold in [0,1]; defaults to the server's"),
		),
		mcp.WithBoolean("hybrid",
			mcp.Description("Blend with the configured LLM scorer"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: report (default) or json"),
			mcp.Enum("report", "json"),
		),
	}
}

func (s *Server) registerTools() {
	textTool := mcp.NewTool("detect_ai_text",
		append([]mcp.ToolOption{
			mcp.WithDescription("Estimate whether a text was AI-generated using stylometric heuristics"),
			mcp.WithString("text",
				mcp.Required(),
				mcp.Description("Text to analyze"),
			),
		}, analysisOptions()...)...,
	)
	s.mcpServer.AddTool(textTool, s.handleDetectText)

	fileTool := mcp.NewTool("detect_ai_file",
		append([]mcp.ToolOption{
			mcp.WithDescription("Extract text from a pdf, docx or txt file and estimate whether it was AI-generated"),
			mcp.WithString("path",
				mcp.Required(),
				mcp.Description("Full path to the document"),
			),
		}, analysisOptions()...)...,
	)
	s.mcpServer.AddTool(fileTool, s.handleDetectFile)

	presetsTool := mcp.NewTool("list_presets",
		mcp.WithDescription("List the weight presets and their feature weights"),
	)
	s.mcpServer.AddTool(presetsTool, s.handleListPresets)
}

func (s *Server) handleDetectText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.detect(ctx, request, aidetect.Input{DocumentID: "mcp-text", Text: text})
}

func (s *Server) handleDetectFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	parsed, err := ingest.ParseFile(path)
	if err != nil {
		s.logger.Warn("extraction failed", "path", path, "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.detect(ctx, request, aidetect.Input{DocumentID: parsed.Title, Text: parsed.Text})
}

func (s *Server) detect(ctx context.Context, request mcp.CallToolRequest, in aidetect.Input) (*mcp.CallToolResult, error) {
	cfg, err := s.configFor(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	analyzer := s.heuristic
	if request.GetBool("hybrid", false) {
		if s.hybrid == nil {
			return mcp.NewToolResultError("hybrid mode is not configured"), nil
		}
		analyzer = s.hybrid
	}
	res := analyzer.Analyze(ctx, in, cfg)

	if request.GetString("format", "report") == "json" {
		data, err := report.JSON(res)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
	if res.Mode == hybrid.ModeHeuristic {
		return mcp.NewToolResultText(report.Console(res.Result)), nil
	}
	return mcp.NewToolResultText(report.Hybrid(res)), nil
}

func (s *Server) configFor(request mcp.CallToolRequest) (aidetect.Config, error) {
	cfg := s.base.Clone()
	if name := request.GetString("preset", ""); name != "" {
		preset, err := aidetect.Preset(name)
		if err != nil {
			return aidetect.Config{}, err
		}
		preset.Threshold = cfg.Threshold
		preset.Rules = cfg.Rules
		cfg = preset
	}
	cfg.Threshold = request.GetFloat("threshold", cfg.Threshold)
	if err := cfg.Validate(); err != nil {
		return aidetect.Config{}, err
	}
	return cfg, nil
}

func (s *Server) handleListPresets(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var b strings.Builder
	for _, name := range aidetect.PresetNames() {
		cfg, err := aidetect.Preset(name)
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "%s (threshold %.2f)\n", name, cfg.Threshold)
		for _, f := range aidetect.AllFeatures {
			fmt.Fprintf(&b, "  - %s: %.2f\n", f, cfg.Weights[f])
		}
	}
	return mcp.NewToolResultText(strings.TrimSuffix(b.String(), "\n")), nil
}

// Run serves the tools over the process stdio until stdin closes or ctx is done.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve speaks MCP over in/out until in reaches EOF or ctx is cancelled.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Info("starting MCP server on stdio")
	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))
	if err := stdio.Listen(ctx, in, out); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	s.logger.Info("MCP server stopped")
	return nil
}
