package main

import (
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/bcproxy/internal/bulk"
	"github.com/sells-group/bcproxy/internal/model"
	"github.com/sells-group/bcproxy/internal/phonelist"
	"github.com/sells-group/bcproxy/pkg/phone"
)

var (
	bulkTag        string
	bulkFile       string
	bulkColumn     int
	bulkSkipHeader bool
	bulkSheet      string
	bulkAPIKey     string
	bulkReal       bool
	bulkFormat     string
	bulkOutput     string
)

var bulkCmd = &cobra.Command{
	Use:   "bulk-attach",
	Short: "Attach a tag to every phone in a CSV, TXT or XLSX file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if bulkFormat != "json" && bulkFormat != "yaml" {
			return eris.Errorf("unknown format %q (want json or yaml)", bulkFormat)
		}
		realMode := bulkReal || cfg.BotConversa.RealMode
		if realMode && bulkAPIKey == "" {
			return eris.New("--api-key is required in real mode")
		}

		phones, err := phonelist.ReadFile(ctx, bulkFile, phonelist.Options{
			Column:     bulkColumn,
			SkipHeader: bulkSkipHeader,
			Sheet:      bulkSheet,
		})
		if err != nil {
			return eris.Wrap(err, "read phone list")
		}

		_, factory := backendFactory(cfg, realMode)
		p := bulk.NewPipeline(factory(bulkAPIKey),
			bulk.WithDelay(bulkDelay(cfg)),
			bulk.WithProgress(logProgress),
		)
		summary, err := p.Run(ctx, bulkTag, phones)
		if err != nil {
			return eris.Wrap(err, "bulk attach")
		}

		return writeReport(cmd.OutOrStdout(), bulkOutput, summary, bulkFormat)
	},
}

func init() {
	bulkCmd.Flags().StringVar(&bulkTag, "tag", "", "tag name to attach")
	bulkCmd.Flags().StringVar(&bulkFile, "file", "", "phone list (.csv, .xlsx, or one phone per line)")
	bulkCmd.Flags().IntVar(&bulkColumn, "column", 0, "zero-based phone column for CSV/XLSX")
	bulkCmd.Flags().BoolVar(&bulkSkipHeader, "skip-header", false, "skip the first row of CSV/XLSX")
	bulkCmd.Flags().StringVar(&bulkSheet, "sheet", "", "XLSX sheet name (default first sheet)")
	bulkCmd.Flags().StringVar(&bulkAPIKey, "api-key", "", "BotConversa API key")
	bulkCmd.Flags().BoolVar(&bulkReal, "real", false, "use the live BotConversa API regardless of config")
	bulkCmd.Flags().StringVar(&bulkFormat, "format", "json", "report format: json or yaml")
	bulkCmd.Flags().StringVar(&bulkOutput, "output", "", "write the report to a file instead of stdout")
	_ = bulkCmd.MarkFlagRequired("tag")
	_ = bulkCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(bulkCmd)
}

func logProgress(done, total int, item model.ItemResult) {
	zap.L().Debug("bulk progress",
		zap.Int("done", done),
		zap.Int("total", total),
		zap.String("phone", phone.Redact(item.Phone)),
		zap.String("status", string(item.Status)),
	)
}

// writeReport writes the summary to path, or to out when path is empty.
// The file's close error is returned so a failed final flush is reported.
func writeReport(out io.Writer, path string, s *model.BulkSummary, format string) error {
	if path == "" {
		return writeSummary(out, s, format)
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "create output file")
	}
	if err := writeSummary(f, s, format); err != nil {
		_ = f.Close()
		return err
	}
	return eris.Wrap(f.Close(), "close output file")
}

func writeSummary(w io.Writer, s *model.BulkSummary, format string) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return eris.Wrap(err, "encode yaml report")
		}
		return eris.Wrap(enc.Close(), "close yaml encoder")
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(s), "encode json report")
}
