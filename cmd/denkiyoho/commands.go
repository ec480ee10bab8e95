package main

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bher20/denkiyoho/internal/usage"
	"github.com/bher20/denkiyoho/pkg/demand"
	"github.com/bher20/denkiyoho/pkg/providers/shared"
)

func newProvidersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List known feed publishers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			return printProviders(cmd.OutOrStdout(), a.svc.Providers())
		},
	}
}

func printProviders(w io.Writer, list []usage.ProviderInfo) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tNAME\tREGION\tHOURLY\tFIVE-MIN\tURL")
	for _, p := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%t\t%s\n",
			p.Key, p.Name, p.Region, p.HasHourlyDemand, p.HasFiveMinuteDemand, p.SourceURL)
	}
	return tw.Flush()
}

type showOptions struct {
	asJSON    bool
	withDiff  bool
	withUsage bool
}

func newShowCmd() *cobra.Command {
	var opts showOptions
	cmd := &cobra.Command{
		Use:   "show <provider>",
		Short: "Fetch a provider's feed and print peak and latest demand",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			rep, err := a.svc.Report(cmd.Context(), strings.ToLower(args[0]))
			if err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), rep, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the full report as JSON")
	cmd.Flags().BoolVar(&opts.withDiff, "diff", false, "append the day-over-day difference")
	cmd.Flags().BoolVar(&opts.withUsage, "usage", false, "append usage relative to peak supply")
	return cmd
}

func printReport(w io.Writer, rep *usage.Report, opts showOptions) error {
	if opts.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}

	fmt.Fprintf(w, "%s (%s) %s\n", rep.Name, rep.Provider, rep.Published)
	if rep.PeakSupply != nil {
		fmt.Fprintln(w, rep.PeakSupply.String())
	}
	if rep.PeakDemand != nil {
		fmt.Fprintln(w, rep.PeakDemand.String())
	}
	if rep.Latest != nil {
		_, fiveMinute := demand.SeekNearestHistory(rep.FiveMinute)
		line := rep.Latest.Summary(fiveMinute)
		if opts.withDiff {
			line += rep.Latest.DifferenceText()
		}
		if opts.withUsage && rep.PeakSupply != nil {
			line += rep.Latest.UsageText(*rep.PeakSupply)
		}
		fmt.Fprintln(w, line)
	}
	for _, block := range slices.Sorted(maps.Keys(rep.Errors)) {
		fmt.Fprintf(w, "warning: %s: %s\n", block, rep.Errors[block])
	}
	return nil
}

func newRawCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "raw <provider>",
		Short: "Print or save a provider's decoded feed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			text, err := a.svc.Raw(cmd.Context(), strings.ToLower(args[0]))
			if err != nil {
				return err
			}
			if out == "" {
				_, err = io.WriteString(cmd.OutOrStdout(), text)
				return err
			}
			if err := shared.WriteFileAtomically(out, strings.NewReader(text), 0o644); err != nil {
				return err
			}
			a.logger.Info("feed saved", "provider", args[0], "path", out, "bytes", len(text))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the feed to this file instead of stdout")
	return cmd
}
