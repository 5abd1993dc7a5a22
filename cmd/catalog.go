package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"streamfusion/catalog"
	"streamfusion/client"
	"streamfusion/storage"
)

// cliActor is recorded as imported_by for imports run from the shell.
const cliActor = "cli"

var serverURL string

var importCmd = &cobra.Command{
	Use:   "import <movie|tv> <tmdb-id>",
	Short: "Import a title from TMDB into the catalog",
	Args:  cobra.ExactArgs(2),
	RunE:  runImport,
}

var seedCmd = &cobra.Command{
	Use:   "seed <export.json>",
	Short: "Load catalog documents from a Firestore JSON export",
	Args:  cobra.ExactArgs(1),
	RunE:  runSeed,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the catalog by title, overview or genre",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

var genreCmd = &cobra.Command{
	Use:   "genre <name>",
	Short: "List the catalog items in a genre",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runGenre,
}

func init() {
	for _, c := range []*cobra.Command{searchCmd, genreCmd} {
		c.Flags().StringVar(&serverURL, "server", "", "Query a running server instead of the local database")
	}
	rootCmd.AddCommand(importCmd, seedCmd, searchCmd, genreCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	kind := catalog.ParseKind(args[0])
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid tmdb id %q", args[1])
	}

	store, err := openStorage()
	if err != nil {
		return err
	}
	defer store.Close()

	importer, c := newImporter(store)
	defer c.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()
	item, err := importer.Import(ctx, kind, id, cliActor)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %s: %s (%d seasons)\n", item.ID, item.Title, len(item.Seasons))
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read export: %w", err)
	}
	items, problems := storage.ParseExport(data)
	for _, p := range problems {
		logger.Warn().Err(p).Msg("skipping document")
	}

	store, err := openStorage()
	if err != nil {
		return err
	}
	defer store.Close()

	saved := 0
	for _, it := range items {
		if err := store.SaveContent(cmd.Context(), it); err != nil {
			logger.Error().Err(err).Str("id", it.ID).Msg("failed to save document")
			continue
		}
		saved++
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d of %d documents (%d skipped)\n", saved, len(items)+len(problems), len(problems)+len(items)-saved)
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	q := strings.Join(args, " ")
	if serverURL != "" {
		items, err := client.New(serverURL, nil, nil, logger).Search(cmd.Context(), q)
		if err != nil {
			return err
		}
		return printItems(cmd.OutOrStdout(), items)
	}

	items, err := localCatalog(cmd.Context())
	if err != nil {
		return err
	}
	return printItems(cmd.OutOrStdout(), catalog.Search(items, q))
}

func runGenre(cmd *cobra.Command, args []string) error {
	genre := strings.Join(args, " ")
	if serverURL != "" {
		b := client.NewGenreBrowser(client.New(serverURL, nil, nil, logger))
		sec, _, err := b.Show(cmd.Context(), genre)
		if err != nil {
			return err
		}
		return printItems(cmd.OutOrStdout(), sec.Items)
	}

	items, err := localCatalog(cmd.Context())
	if err != nil {
		return err
	}
	return printItems(cmd.OutOrStdout(), catalog.FilterByGenre(items, genre))
}

func localCatalog(ctx context.Context) ([]catalog.Item, error) {
	store, err := openStorage()
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.GetAllContent(ctx)
}

func printItems(out io.Writer, items []catalog.Item) error {
	if len(items) == 0 {
		fmt.Fprintln(out, "No results")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tTITLE\tGENRES\tADDED")
	for _, it := range items {
		added := "-"
		if !it.ImportedAt.IsZero() {
			added = it.ImportedAt.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", it.ID, it.Kind, it.Title, strings.Join(it.Genres, ", "), added)
	}
	return w.Flush()
}
