package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	appexploits "github.com/bryanwahyu/exploitsearch/internal/application/exploits"
	"github.com/bryanwahyu/exploitsearch/internal/middleware"
)

const descWidth = 70

func newSearchCmd(c *cli) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "search [terms...]",
		Short: "Rank catalog records matching every term",
		Long: `Search lower-cases the terms and keeps records whose signatures,
description, type and platform contain every one of them. Records with
CVE identifiers come first, then newer records before older ones.
Without terms the whole catalog is listed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := middleware.ValidateQuery(strings.Join(args, " "))
			if err != nil {
				return err
			}
			a := buildApp(cmd.Context(), c.cfg)
			defer a.Close()

			res := a.exploits.Search(q, limit)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			return printResults(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum rows to print (0 = all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func printResults(out io.Writer, res appexploits.SearchResult) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tPLATFORM\tTYPE\tSIGNATURES\tDESCRIPTION")
	for _, v := range res.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			v.ID, v.Date, v.Platform, v.Type, dash(v.Signatures), truncate(v.Description, descWidth))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "%d of %d matches\n", len(res.Items), res.Total)
	return err
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
