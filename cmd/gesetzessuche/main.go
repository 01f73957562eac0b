package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/coolbeans/gesetzessuche/pkg/citation"
	"github.com/coolbeans/gesetzessuche/pkg/export"
	"github.com/coolbeans/gesetzessuche/pkg/fetch"
	"github.com/coolbeans/gesetzessuche/pkg/library"
	"github.com/coolbeans/gesetzessuche/pkg/search"
	"github.com/coolbeans/gesetzessuche/pkg/server"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "gesetzessuche",
		Short: "Search German federal law documents",
		Long: `Gesetzessuche downloads German federal laws from
gesetze-im-internet.de and answers queries against them:

  - paragraph and section lookup ("§ 8b", "§ 8b Absatz 2")
  - natural reference strings ("KStG § 8b Absatz 2 Satz 1")
  - full-text search with context
  - Markdown export and an MCP server for assistants`,
		Version: version,
	}

	rootCmd.PersistentFlags().String("base", ".", "base directory holding law_mapping.json and data/")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(infoCmd())
	rootCmd.AddCommand(getCmd())
	rootCmd.AddCommand(paragraphCmd())
	rootCmd.AddCommand(sectionCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(lawsCmd())
	rootCmd.AddCommand(tocCmd())
	rootCmd.AddCommand(downloadCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging(cmd *cobra.Command) {
	levelName, _ := cmd.Flags().GetString("log-level")
	level, err := log.ParseLevel(levelName)
	if err != nil {
		level = log.WarnLevel
	}
	log.SetLevel(level)
}

func baseDir(cmd *cobra.Command) string {
	base, _ := cmd.Flags().GetString("base")
	return base
}

func fetchConfig(cmd *cobra.Command) (fetch.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return fetch.DefaultConfig(), nil
	}
	return fetch.LoadConfig(path)
}

// openLibrary opens the library, optionally wired to a downloader when
// the command carries a --download flag and it is set.
func openLibrary(cmd *cobra.Command) (*library.Library, error) {
	setupLogging(cmd)
	base := baseDir(cmd)

	var opts []library.Option
	if download, _ := cmd.Flags().GetBool("download"); download {
		cfg, err := fetchConfig(cmd)
		if err != nil {
			return nil, err
		}
		opts = append(opts, library.WithDownloader(fetch.NewDownloader(base, cfg)))
	}
	return library.Open(base, opts...)
}

// newSearch loads a law and builds its query engine, preferring the
// document's own jurabk over the user's spelling of the code.
func newSearch(lib *library.Library, code string) (*search.Search, error) {
	doc, ok := lib.Load(code)
	if !ok {
		return nil, fmt.Errorf("law %q not found (run: gesetzessuche download %s)", code, code)
	}
	lawCode := code
	if abks := doc.Abbreviations(); len(abks) > 0 {
		lawCode = abks[0]
	}
	return search.New(doc, lawCode), nil
}

func addDownloadFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("download", false, "download the law if it is missing locally")
	cmd.Flags().String("config", "", "YAML download config file")
}

func infoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <law>",
		Short: "Show a law's title, abbreviations and structure counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := openLibrary(cmd)
			if err != nil {
				return err
			}
			s, err := newSearch(lib, args[0])
			if err != nil {
				return err
			}
			fmt.Println(s.Info())
			return nil
		},
	}
	addDownloadFlags(cmd)
	return cmd
}

func getCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <reference>",
		Short: "Resolve a reference string like \"KStG § 8b Absatz 2\"",
		Long: `Resolve a natural reference string against a law.

The law code may be part of the reference ("BGB § 1") or given with
--law ("--law BGB '§ 1 Absatz 1 Satz 1'").`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reference := args[0]
			lawFlag, _ := cmd.Flags().GetString("law")

			code := lawFlag
			if ref, ok := citation.Parse(reference); ok && ref.Law != "" {
				code = ref.Law
			}
			if code == "" {
				return fmt.Errorf("reference %q does not include a law code; pass --law", reference)
			}

			lib, err := openLibrary(cmd)
			if err != nil {
				return err
			}
			s, err := newSearch(lib, code)
			if err != nil {
				return err
			}
			result, ok := s.ByReference(reference)
			if !ok {
				return fmt.Errorf("could not find or parse reference %q", reference)
			}
			fmt.Println(result)
			return nil
		},
	}
	cmd.Flags().String("law", "", "law code when the reference does not include one")
	addDownloadFlags(cmd)
	return cmd
}

func paragraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "paragraph <law> <number>",
		Aliases: []string{"p"},
		Short:   "Show a paragraph by number",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := openLibrary(cmd)
			if err != nil {
				return err
			}
			s, err := newSearch(lib, args[0])
			if err != nil {
				return err
			}
			result, ok := s.FindParagraph(args[1])
			if !ok {
				return fmt.Errorf("%s § %s not found", args[0], args[1])
			}
			fmt.Println(result)
			return nil
		},
	}
	addDownloadFlags(cmd)
	return cmd
}

func sectionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "section <law> <number> <absatz>",
		Short: "Show a single section (Absatz) of a paragraph",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := openLibrary(cmd)
			if err != nil {
				return err
			}
			s, err := newSearch(lib, args[0])
			if err != nil {
				return err
			}
			result, ok := s.FindSection(args[1], args[2])
			if !ok {
				return fmt.Errorf("%s § %s Absatz %s not found", args[0], args[1], args[2])
			}
			fmt.Println(result)
			return nil
		},
	}
	addDownloadFlags(cmd)
	return cmd
}

func searchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <law> <term>",
		Short: "Search for a term in a law",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			caseSensitive, _ := cmd.Flags().GetBool("case-sensitive")

			lib, err := openLibrary(cmd)
			if err != nil {
				return err
			}
			s, err := newSearch(lib, args[0])
			if err != nil {
				return err
			}

			results := s.SearchTerm(args[1], caseSensitive)
			if len(results) == 0 {
				fmt.Printf("No matches for %q\n", args[1])
				return nil
			}
			fmt.Printf("%d match(es):\n\n", len(results))
			for i, r := range results {
				fmt.Printf("%d. %s\n", i+1, r.Paragraph)
				if r.Title != "" {
					fmt.Printf("   %s\n", r.Title)
				}
				fmt.Printf("   %s\n\n", r.Context)
			}
			return nil
		},
	}
	cmd.Flags().Bool("case-sensitive", false, "match case exactly")
	addDownloadFlags(cmd)
	return cmd
}

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <law>",
		Short: "List all paragraphs of a law",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := openLibrary(cmd)
			if err != nil {
				return err
			}
			s, err := newSearch(lib, args[0])
			if err != nil {
				return err
			}
			entries := s.ListParagraphs()
			for _, e := range entries {
				if e.Title != "" {
					fmt.Printf("  %-15s %s\n", e.Label, e.Title)
				} else {
					fmt.Printf("  %s\n", e.Label)
				}
			}
			fmt.Printf("\n%d paragraphs\n", len(entries))
			return nil
		},
	}
	addDownloadFlags(cmd)
	return cmd
}

func lawsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "laws",
		Short: "List all locally available laws",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := openLibrary(cmd)
			if err != nil {
				return err
			}
			keys := lib.Keys()
			if len(keys) == 0 {
				fmt.Println("No laws downloaded yet. Run: gesetzessuche download <code>")
				return nil
			}
			sort.Strings(keys)
			for _, key := range keys {
				entry, _ := lib.Entry(key)
				fmt.Printf("  %-20s %-15s %s\n", key, entry.Category, entry.Title)
			}
			fmt.Printf("\n%d laws\n", len(keys))
			return nil
		},
	}
}

func tocCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toc",
		Short: "Download the site-wide table of contents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(cmd)
			cfg, err := fetchConfig(cmd)
			if err != nil {
				return err
			}
			d := fetch.NewDownloader(baseDir(cmd), cfg)
			if err := d.DownloadTOC(); err != nil {
				return err
			}
			entries, err := d.TOC()
			if err != nil {
				return err
			}
			fmt.Printf("Table of contents lists %d laws\n", len(entries))
			return nil
		},
	}
	cmd.Flags().String("config", "", "YAML download config file")
	return cmd
}

func downloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download [codes...]",
		Short: "Download laws by code, or the whole archive with --all",
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(cmd)
			all, _ := cmd.Flags().GetBool("all")
			maxDownloads, _ := cmd.Flags().GetInt("max")

			cfg, err := fetchConfig(cmd)
			if err != nil {
				return err
			}
			if maxDownloads > 0 {
				cfg.MaxDownloads = maxDownloads
			}
			base := baseDir(cmd)
			d := fetch.NewDownloader(base, cfg)

			if all {
				entries, err := d.TOC()
				if err != nil {
					return err
				}
				stats, err := d.BatchDownload(entries)
				if err != nil {
					return err
				}
				fmt.Printf("Downloaded %d, skipped %d, failed %d\n",
					stats.Downloaded, stats.Skipped, stats.Failed)
				return nil
			}

			if len(args) == 0 {
				return fmt.Errorf("pass law codes or --all")
			}
			mappingPath := filepath.Join(base, library.MappingFilename)
			mapping, err := library.LoadMapping(mappingPath)
			if err != nil {
				return err
			}
			for _, code := range args {
				jurabk, entry, ok := d.FetchLaw(code)
				if !ok {
					fmt.Fprintf(os.Stderr, "failed to download %q\n", code)
					continue
				}
				mapping[jurabk] = entry
				fmt.Printf("Downloaded %s: %s\n", jurabk, entry.Title)
			}
			return library.SaveMapping(mappingPath, mapping)
		},
	}
	cmd.Flags().Bool("all", false, "download every law in the table of contents")
	cmd.Flags().Int("max", 0, "limit the number of downloads (0 = unlimited)")
	cmd.Flags().String("config", "", "YAML download config file")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <law>",
		Short: "Export a law as Markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")

			lib, err := openLibrary(cmd)
			if err != nil {
				return err
			}
			doc, ok := lib.Load(args[0])
			if !ok {
				return fmt.Errorf("law %q not found", args[0])
			}
			lawCode := args[0]
			if abks := doc.Abbreviations(); len(abks) > 0 {
				lawCode = abks[0]
			}

			md := export.Markdown(doc, lawCode)
			if output == "" {
				fmt.Print(md)
				return nil
			}
			if err := os.WriteFile(output, []byte(md), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			fmt.Printf("Exported %s to %s\n", lawCode, output)
			return nil
		},
	}
	cmd.Flags().String("output", "", "write to file instead of stdout")
	addDownloadFlags(cmd)
	return cmd
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the law library over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(cmd)
			cfg, err := fetchConfig(cmd)
			if err != nil {
				return err
			}
			base := baseDir(cmd)
			lib, err := library.Open(base,
				library.WithDownloader(fetch.NewDownloader(base, cfg)))
			if err != nil {
				return err
			}
			return server.New(lib).Serve()
		},
	}
	cmd.Flags().String("config", "", "YAML download config file")
	return cmd
}
