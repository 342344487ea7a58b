// Copyright (c) 2023 The KBase Project and its Contributors
// Copyright (c) 2023 Cohere Consulting, LLC
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbase/gdc/config"
	"github.com/kbase/gdc/gdc"
	"github.com/kbase/gdc/journal"
	"github.com/kbase/gdc/services"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the status of the GDC API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := gdc.NewClientFromConfig()
			if err != nil {
				return err
			}
			status, err := client.Status()
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), status)
		},
	}
}

func newProjectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List GDC projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := gdc.NewClientFromConfig()
			if err != nil {
				return err
			}
			projects, err := client.Projects()
			if err != nil {
				return err
			}
			for _, project := range projects {
				fmt.Fprintln(cmd.OutOrStdout(), project)
			}
			return nil
		},
	}
}

func newCategoriesCmd() *cobra.Command {
	var legacy bool
	cmd := &cobra.Command{
		Use:   "categories <project>",
		Short: "List the data categories available for a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := gdc.NewClientFromConfig()
			if err != nil {
				return err
			}
			summary, err := client.CategorySummary(args[0], legacy)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DATA CATEGORY\tCASES\tFILES")
			for _, s := range summary {
				fmt.Fprintf(w, "%s\t%d\t%d\n", s.DataCategory, s.CaseCount, s.FileCount)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&legacy, "legacy", false, "Use the legacy GDC namespace")
	return cmd
}

func newServeCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve GDC searches and manifests over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("port") {
				port = config.Service.Port
			}
			client, err := gdc.NewClientFromConfig()
			if err != nil {
				return err
			}
			service, err := services.NewGdcService(client)
			if err != nil {
				return err
			}

			// Start the service in a goroutine so it doesn't block.
			errs := make(chan error, 1)
			go func() {
				errs <- service.Start(port)
			}()

			// Intercept the SIGINT, SIGHUP, SIGTERM, and SIGQUIT signals, shutting
			// down the service as gracefully as possible if they are encountered.
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan,
				syscall.SIGINT,
				syscall.SIGHUP,
				syscall.SIGTERM,
				syscall.SIGQUIT)
			defer signal.Stop(sigChan)

			select {
			case err := <-errs:
				return err
			case <-sigChan:
			case <-cmd.Context().Done():
			}

			// Wait for connections to close until the deadline elapses.
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			slog.Info("Shutting down")
			return service.Shutdown(ctx)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "Port on which to listen (default: service.port)")
	return cmd
}

func newJournalCmd() *cobra.Command {
	var since time.Duration
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "List recorded downloads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.MkdirAll(config.Service.DataDirectory, 0755); err != nil {
				return err
			}
			if err := journal.Init(); err != nil {
				return err
			}
			defer journal.Finalize()

			now := time.Now()
			records, err := journal.Records(now.Add(-since), now)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTARTED\tSTATUS\tCATEGORY\tFILES\tBYTES\tMANIFEST")
			for _, r := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n", r.Id, r.StartTime.Format(time.RFC3339),
					r.Status, r.DataCategory, r.NumFiles, r.PayloadSize, r.ManifestFile)
			}
			return w.Flush()
		},
	}
	cmd.Flags().DurationVar(&since, "since", 30*24*time.Hour, "List downloads started within this period")
	return cmd
}
