package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"doc_detector/internal/db"
)

func newHistoryCmd(a *app) *cobra.Command {
	var (
		limit int
		id    string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List saved analyses, or print one with --id",
		RunE: func(cmd *cobra.Command, args []string) error {
			storePath, err := a.storePath()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if id != "" {
				rec, err := db.GetAnalysis(storePath, id)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, rec.ResultJSON)
				return nil
			}

			rows, err := db.ListAnalyses(storePath, limit)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				fmt.Fprintln(out, "No saved analyses.")
				return nil
			}
			for _, r := range rows {
				fmt.Fprintf(out, "%s  %s  %-9s %-12s conf=%.2f risk=%-7s ai=%t  %s\n",
					r.ID, r.CreatedAt.Local().Format(time.DateTime), r.Mode, r.Preset, r.Confidence, r.Risk, r.IsLikelyAI, r.Source)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum rows to list (0 = all)")
	cmd.Flags().StringVar(&id, "id", "", "Print the stored result of one analysis")
	return cmd
}
