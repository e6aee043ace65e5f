package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	appai "github.com/bryanwahyu/exploitsearch/internal/application/ai"
	appexploits "github.com/bryanwahyu/exploitsearch/internal/application/exploits"
	"github.com/bryanwahyu/exploitsearch/internal/infra/export"
	"github.com/bryanwahyu/exploitsearch/internal/middleware"
)

type analyzeFlags struct {
	pdf, docx string
	upload    bool
	raw       bool
}

func newAnalyzeCmd(c *cli) *cobra.Command {
	var f analyzeFlags
	cmd := &cobra.Command{
		Use:   "analyze ID",
		Short: "Request an AI security analysis of one record",
		Long: `Analyze sends one request to the configured text generation service
and waits for its result. Interrupting the wait does not cancel the
request on the service side. With --pdf or --docx the analysis is exported
as well; --upload publishes the documents to the configured MinIO bucket.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := middleware.ValidateExploitID(args[0]); err != nil {
				return err
			}
			a := buildApp(cmd.Context(), c.cfg)
			defer a.Close()
			return runAnalyze(cmd.Context(), cmd.OutOrStdout(), a, args[0], f)
		},
	}
	cmd.Flags().StringVar(&f.pdf, "pdf", "", "export the analysis to this PDF file")
	cmd.Flags().StringVar(&f.docx, "docx", "", "export the analysis to this DOCX file")
	cmd.Flags().BoolVar(&f.upload, "upload", false, "upload exported documents to object storage")
	cmd.Flags().BoolVar(&f.raw, "raw", false, "print the HTML as returned instead of plain text")
	return cmd
}

func runAnalyze(ctx context.Context, out io.Writer, a *app, id string, f analyzeFlags) error {
	rec, err := a.exploits.Get(id)
	if err != nil {
		return fmt.Errorf("%w: %s", err, id)
	}

	// tunggu sampai hasil tersimpan, bukan cuma sampai terminal event
	settled := make(chan struct{})
	a.ai.OnSettled = func(appai.Result, bool) { close(settled) }

	req, err := a.ai.Analyze(ctx, rec)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "analysis requested: exploit=%s request=%d\n", rec.ID, req.ID)

	res, err := req.Wait(ctx)
	if err != nil {
		return fmt.Errorf("stopped waiting for analysis: %w", err)
	}
	select {
	case <-settled:
	case <-ctx.Done():
	}
	if !res.OK() {
		return fmt.Errorf("analysis failed: %w", res.Err)
	}

	text := res.Text
	if !f.raw {
		if text, err = export.PlainText(res.Text); err != nil {
			return err
		}
	}
	fmt.Fprintln(out, text)

	for _, target := range []struct{ format, path string }{{"pdf", f.pdf}, {"docx", f.docx}} {
		if target.path == "" {
			continue
		}
		exp, err := a.exploits.ExportAnalysis(ctx, appexploits.ExportCommand{
			Format:    target.format,
			ExploitID: rec.ID,
			HTML:      res.Text,
			Path:      target.path,
			Upload:    f.upload,
		})
		if err != nil {
			return fmt.Errorf("export %s: %w", target.format, err)
		}
		fmt.Fprintf(out, "%s written to %s (%d bytes)\n", exp.Format, exp.Path, exp.Size)
		if exp.URL != "" {
			fmt.Fprintf(out, "%s uploaded to %s\n", exp.Format, exp.URL)
		}
	}
	return nil
}
