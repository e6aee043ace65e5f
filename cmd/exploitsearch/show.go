package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/mitchellh/go-wordwrap"
	"github.com/spf13/cobra"

	appexploits "github.com/bryanwahyu/exploitsearch/internal/application/exploits"
	"github.com/bryanwahyu/exploitsearch/internal/domain/exploits"
	"github.com/bryanwahyu/exploitsearch/internal/infra/export"
	"github.com/bryanwahyu/exploitsearch/internal/middleware"
)

func newShowCmd(c *cli) *cobra.Command {
	var (
		htmlPath string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Print one record and optionally save its highlighted source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := middleware.ValidateExploitID(args[0]); err != nil {
				return err
			}
			a := buildApp(cmd.Context(), c.cfg)
			defer a.Close()

			rec, err := a.exploits.Get(args[0])
			if err != nil {
				return fmt.Errorf("%w: %s", err, args[0])
			}
			src := a.exploits.Source(rec)
			if htmlPath != "" && src.Notice == "" {
				if err := export.WriteFile(htmlPath, []byte(src.HTML)); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					exploits.View
					Source appexploits.Source `json:"source"`
				}{exploits.NewView(rec), src})
			}
			printRecord(out, rec, src)
			if htmlPath != "" && src.Notice == "" {
				fmt.Fprintf(out, "highlighted source written to %s\n", htmlPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&htmlPath, "html", "", "write the highlighted source as an HTML page")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

var (
	titleColor  = color.New(color.FgCyan, color.Bold)
	noticeColor = color.New(color.FgYellow)
)

func printRecord(out io.Writer, rec exploits.Record, src appexploits.Source) {
	titleColor.Fprintf(out, "Exploit %s\n", rec.ID)
	fmt.Fprintf(out, "ID:          %s\n", rec.ID)
	fmt.Fprintf(out, "Link:        %s\n", rec.Link())
	fmt.Fprintf(out, "Signatures:  %s\n", dash(rec.Signatures))
	fmt.Fprintf(out, "Platform:    %s\n", dash(rec.Platform))
	fmt.Fprintf(out, "Type:        %s\n", dash(rec.Type))
	fmt.Fprintf(out, "Date:        %s\n", dash(rec.Date))
	fmt.Fprintf(out, "Author:      %s\n", dash(rec.Author))
	fmt.Fprintf(out, "Verified:    %s\n", dash(rec.Verified))
	fmt.Fprintf(out, "File:        %s\n", dash(rec.FilePath))
	fmt.Fprintf(out, "\n%s\n\n", wordwrap.WrapString(rec.Description, 78))
	if src.Notice != "" {
		noticeColor.Fprintln(out, src.Notice)
		return
	}
	fmt.Fprintf(out, "Source language: %s\n", src.Language)
}
