package main

import (
	"errors"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"doc_detector/internal/aidetect"
	"doc_detector/internal/hybrid"
	"doc_detector/internal/ingest"
	"doc_detector/internal/pipeline"
	"doc_detector/internal/report"
)

func newBatchCmd(a *app) *cobra.Command {
	var save bool
	cmd := &cobra.Command{
		Use:         "batch <files...>",
		Short:       "Analyze many documents concurrently",
		Args:        cobra.MinimumNArgs(1),
		Annotations: workspaceAnnotation,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBatch(cmd, args, save)
		},
	}
	cmd.Flags().Int("workers", 0, "Concurrent documents (0 = number of CPUs)")
	cmd.Flags().BoolVar(&save, "save", false, "Persist every result to the audit store and workspace")
	return cmd
}

func (a *app) runBatch(cmd *cobra.Command, paths []string, save bool) error {
	cfg, err := a.settings.Detection()
	if err != nil {
		return withCode(exitAnalysis, err)
	}
	analyzer, err := a.analyzer()
	if err != nil {
		return withCode(exitAnalysis, err)
	}

	docs := pipeline.Documents(paths)
	results := make([]*hybrid.Result, len(docs))
	var saveMu sync.Mutex
	errs := pipeline.AnalyzeDocuments(docs, a.settings.Workers, func(doc pipeline.Document) error {
		parsed, err := ingest.ParseFile(doc.Source)
		if err != nil {
			return err
		}
		res := analyzer.Analyze(cmd.Context(), aidetect.Input{DocumentID: parsed.Title, Text: parsed.Text}, cfg)
		results[doc.Index] = &res
		if save {
			// sqlite allows one writer at a time.
			saveMu.Lock()
			defer saveMu.Unlock()
			if _, err := a.save(doc.Source, parsed.SourceBytes, cfg, res); err != nil {
				return err
			}
		}
		return nil
	})

	out := cmd.OutOrStdout()
	for i, res := range results {
		if res == nil {
			continue
		}
		fmt.Fprintf(out, "%s: %s\n", docs[i].Source, report.Summary(res.Result))
	}
	for _, err := range errs {
		fmt.Fprintf(cmd.ErrOrStderr(), "failed: %v\n", err)
	}
	if len(errs) > 0 {
		return withCode(exitAnalysis, fmt.Errorf("%d of %d documents failed: %w", len(errs), len(docs), errors.Join(errs...)))
	}
	return nil
}
