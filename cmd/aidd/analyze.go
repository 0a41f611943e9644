package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"doc_detector/internal/aidetect"
	"doc_detector/internal/db"
	"doc_detector/internal/hybrid"
	"doc_detector/internal/ingest"
	"doc_detector/internal/report"
	"doc_detector/internal/workspace"
)

type analyzeOptions struct {
	pdf     string
	file    string
	text    string
	jsonOut string
	json    bool
	save    bool
}

func newAnalyzeCmd(a *app) *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:         "analyze",
		Short:       "Analyze one document or text",
		Annotations: workspaceAnnotation,
		Example: `  aidd analyze --pdf patent.pdf
  aidd analyze --text "Furthermore, it is important to note..." --threshold 0.5
  aidd analyze --file draft.docx --preset aggressive --json-out result.json
  aidd analyze --file draft.txt --hybrid --model llama3.2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAnalyze(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.pdf, "pdf", "", "Path to PDF file to analyze")
	cmd.Flags().StringVar(&opts.file, "file", "", "Path to a pdf, docx or txt file to analyze")
	cmd.Flags().StringVar(&opts.text, "text", "", "Plain text to analyze")
	cmd.Flags().StringVar(&opts.jsonOut, "json-out", "", "Optional path to write JSON output")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print JSON instead of the console report")
	cmd.Flags().BoolVar(&opts.save, "save", false, "Persist the result to the audit store and workspace")
	cmd.MarkFlagsMutuallyExclusive("pdf", "file", "text")
	cmd.MarkFlagsOneRequired("pdf", "file", "text")
	return cmd
}

func (a *app) runAnalyze(cmd *cobra.Command, opts *analyzeOptions) error {
	cfg, err := a.settings.Detection()
	if err != nil {
		return withCode(exitAnalysis, err)
	}

	in := aidetect.Input{DocumentID: "text", Text: opts.text}
	source := "text"
	var raw []byte
	if path := firstNonEmpty(opts.pdf, opts.file); path != "" {
		parsed, err := ingest.ParseFile(path)
		if err != nil {
			return withCode(exitAnalysis, err)
		}
		in = aidetect.Input{DocumentID: parsed.Title, Text: parsed.Text}
		source = path
		raw = parsed.SourceBytes
		a.logger.Info("document extracted", "path", path, "format", parsed.Format, "pages", parsed.Pages, "chars", len(parsed.Text))
	}

	analyzer, err := a.analyzer()
	if err != nil {
		return withCode(exitAnalysis, err)
	}
	res := analyzer.Analyze(cmd.Context(), in, cfg)

	out := cmd.OutOrStdout()
	if opts.json {
		data, err := report.JSON(res)
		if err != nil {
			return withCode(exitAnalysis, err)
		}
		fmt.Fprintln(out, string(data))
	} else {
		fmt.Fprintln(out, render(res))
	}

	if opts.jsonOut != "" {
		if err := report.WriteJSON(opts.jsonOut, res); err != nil {
			return withCode(exitJSONWrite, fmt.Errorf("failed to write JSON: %w", err))
		}
		fmt.Fprintf(out, "\nWrote JSON to: %s\n", opts.jsonOut)
	}

	if opts.save {
		id, err := a.save(source, raw, cfg, res)
		if err != nil {
			return withCode(exitAnalysis, err)
		}
		fmt.Fprintf(out, "Saved analysis: %s\n", id)
	}
	return nil
}

func render(res hybrid.Result) string {
	if res.Mode == hybrid.ModeHeuristic {
		return report.Console(res.Result)
	}
	return report.Hybrid(res)
}

// save records the result in the audit store and writes the workspace
// report for the document.
func (a *app) save(source string, raw []byte, cfg aidetect.Config, res hybrid.Result) (string, error) {
	storePath, err := a.storePath()
	if err != nil {
		return "", err
	}
	rec, err := db.RecordFromResult(source, cfg, res, time.Now())
	if err != nil {
		return "", err
	}
	if err := db.SaveAnalysis(storePath, rec); err != nil {
		return "", err
	}

	root, err := workspace.EnsureDefault()
	if err != nil {
		return "", err
	}
	doc, err := workspace.CreateDocument(root, filepath.Base(source), raw)
	if err != nil {
		return "", err
	}
	if err := workspace.SaveReport(doc, res); err != nil {
		return "", err
	}
	a.logger.Info("analysis saved", "id", rec.ID, "store", storePath, "report", doc.ReportPath)
	return rec.ID, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
