package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wadjakorntonsri/studio-cms/pkg/core/domain"
	"github.com/wadjakorntonsri/studio-cms/pkg/core/ordering"
	"github.com/wadjakorntonsri/studio-cms/pkg/ports"
)

var (
	importFile string
	dryRun     bool
)

var errSparse = errors.New("some collections are not densely ordered")

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every document as JSON to stdout",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepo()
		if err != nil {
			return fmt.Errorf("connect to db: %w", err)
		}
		defer repo.Close()
		return runExport(cmd.Context(), repo, cmd.OutOrStdout())
	},
}

var importCmd = &cobra.Command{
	Use:   "import --file dump.json",
	Short: "Upsert documents from an export file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(importFile)
		if err != nil {
			return fmt.Errorf("open file: %w", err)
		}
		defer f.Close()

		repo, err := openRepo()
		if err != nil {
			return fmt.Errorf("connect to db: %w", err)
		}
		defer repo.Close()

		n, err := runImport(cmd.Context(), repo, f)
		if err != nil {
			return err
		}
		log.Info("import finished", "documents", n)
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report whether each collection is densely ordered",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := loadCatalog()
		if err != nil {
			return err
		}
		repo, err := openRepo()
		if err != nil {
			return fmt.Errorf("connect to db: %w", err)
		}
		defer repo.Close()
		return runCheck(cmd.Context(), repo, catalog.Names(), cmd.OutOrStdout())
	},
}

var renumberCmd = &cobra.Command{
	Use:   "renumber",
	Short: "Rewrite sparse collections to sequences 0..n-1",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := loadCatalog()
		if err != nil {
			return err
		}
		repo, err := openRepo()
		if err != nil {
			return fmt.Errorf("connect to db: %w", err)
		}
		defer repo.Close()

		fixed, err := runRenumber(cmd.Context(), repo, catalog.Names(), dryRun)
		if err != nil {
			return err
		}
		for _, name := range fixed {
			log.Info("renumbered collection", "collection", name, "dry_run", dryRun)
		}
		if len(fixed) == 0 {
			log.Info("all collections are dense")
		}
		return nil
	},
}

func runExport(ctx context.Context, store ports.DocumentStore, w io.Writer) error {
	docs, err := store.Dump(ctx)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(docs)
}

func runImport(ctx context.Context, store ports.DocumentStore, r io.Reader) (int, error) {
	var docs []domain.Document
	if err := json.NewDecoder(r).Decode(&docs); err != nil {
		return 0, fmt.Errorf("decode failed: %w", err)
	}
	return store.Restore(ctx, docs)
}

func runCheck(ctx context.Context, store ports.DocumentStore, names []string, w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COLLECTION\tITEMS\tSTATUS")

	sparse := false
	for _, name := range names {
		items, err := store.FetchCollection(ctx, name)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", name, err)
		}
		status := "dense"
		if ordering.NeedsRenumber(items) {
			status = "sparse"
			sparse = true
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", name, len(items), status)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if sparse {
		return errSparse
	}
	return nil
}

// runRenumber writes one batch per sparse collection and returns their names.
func runRenumber(ctx context.Context, store ports.DocumentStore, names []string, dryRun bool) ([]string, error) {
	var fixed []string
	for _, name := range names {
		items, err := store.FetchCollection(ctx, name)
		if err != nil {
			return fixed, fmt.Errorf("fetch %s: %w", name, err)
		}
		if !ordering.NeedsRenumber(items) {
			continue
		}
		if !dryRun {
			if err := store.BatchUpdateSequences(ctx, name, ordering.Updates(ordering.Normalize(items))); err != nil {
				return fixed, fmt.Errorf("renumber %s: %w", name, err)
			}
		}
		fixed = append(fixed, name)
	}
	return fixed, nil
}
