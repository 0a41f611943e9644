package main

import (
	"github.com/spf13/cobra"

	"doc_detector/internal/hybrid"
	"doc_detector/internal/mcp"
	"doc_detector/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var persist bool
	cmd := &cobra.Command{
		Use:         "serve",
		Short:       "Serve the detection HTTP API",
		Annotations: workspaceAnnotation,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.serverOptions(persist)
			if err != nil {
				return err
			}
			return server.Run(cmd.Context(), a.settings.Server.Addr, server.NewRouter(opts), a.logger)
		},
	}
	cmd.Flags().String("addr", "127.0.0.1:8080", "Listen address")
	cmd.Flags().BoolVar(&persist, "persist", false, "Enable the audit store and /v1/analyses")
	return cmd
}

func (a *app) serverOptions(withStore bool) (server.Options, error) {
	cfg, err := a.settings.Detection()
	if err != nil {
		return server.Options{}, err
	}
	scorer, err := a.scorer()
	if err != nil {
		return server.Options{}, err
	}
	opts := server.Options{
		Base:   cfg,
		Scorer: scorer,
		Hybrid: a.settings.HybridSettings(),
		Logger: a.logger,
	}
	if withStore {
		if opts.StorePath, err = a.storePath(); err != nil {
			return server.Options{}, err
		}
	}
	return opts, nil
}

// scorer returns nil unless hybrid mode is enabled.
func (a *app) scorer() (hybrid.Scorer, error) {
	if !a.settings.Hybrid.Enabled {
		return nil, nil
	}
	return hybrid.NewScorer(a.settings.ScorerOptions(), a.logger)
}

func newMCPCmd(a *app, version string) *cobra.Command {
	return &cobra.Command{
		Use:         "mcp",
		Short:       "Serve detection tools over MCP stdio",
		Annotations: workspaceAnnotation,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.settings.Detection()
			if err != nil {
				return err
			}
			scorer, err := a.scorer()
			if err != nil {
				return err
			}
			return mcp.NewServer(mcp.Options{
				Name:    "aidd",
				Version: version,
				Base:    cfg,
				Scorer:  scorer,
				Hybrid:  a.settings.HybridSettings(),
				Logger:  a.logger,
			}).Run(cmd.Context())
		},
	}
}
