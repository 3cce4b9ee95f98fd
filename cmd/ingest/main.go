package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"ai-finance-assistant-be/internal/bootstrap"
	"ai-finance-assistant-be/internal/config"
	"ai-finance-assistant-be/internal/pkg/logger"
	"ai-finance-assistant-be/pkg/rag/index"
	"ai-finance-assistant-be/pkg/rag/ingest"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	cfg       *config.Config
	sysLogger *logger.ZapLogger
	docsDir   string
	chunkSize int
	overlap   int
)

var rootCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Build the financial document index",
	Long: `Split every .txt and .md file below the documents directory, embed each
chunk with the configured embedding model and write it to the retrieval index.

Re-ingesting a file replaces its previous passages. The index records the
embedding model; a run with another model is rejected.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		handle, err := bootstrap.OpenIndex(cfg, sysLogger, false)
		if err != nil {
			return err
		}
		defer handle.Close()

		emb, err := bootstrap.NewEmbeddingProvider(cfg)
		if err != nil {
			return err
		}

		ing := ingest.NewIngester(emb, handle.Index, ingest.Config{ChunkSize: chunkSize, Overlap: overlap}, sysLogger)
		stats, err := ing.IngestDir(cmd.Context(), docsDir)
		if err != nil {
			return fmt.Errorf("ingest %s: %w", docsDir, err)
		}

		color.Green("✅ Indexed %d passages from %d files (%d skipped) with %s", stats.Passages, stats.Files, stats.Skipped, emb.Model())
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <source>",
	Short: "Remove every passage of one source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		handle, err := bootstrap.OpenIndex(cfg, sysLogger, false)
		if err != nil {
			return err
		}
		defer handle.Close()

		n, err := handle.Index.DeleteSource(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		color.Yellow("Removed %d passages of %s", n, args[0])
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the index manifest",
	RunE: func(cmd *cobra.Command, args []string) error {
		handle, err := bootstrap.OpenIndex(cfg, sysLogger, true)
		if err != nil {
			return err
		}
		defer handle.Close()

		m, err := handle.Index.Manifest(cmd.Context())
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	},
}

func main() {
	cfg = config.Load()
	sysLogger = logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())

	rootCmd.Flags().StringVar(&docsDir, "dir", cfg.Index.DocsDir, "directory holding the documents")
	rootCmd.Flags().IntVar(&chunkSize, "chunk-size", cfg.Index.ChunkSize, "passage size in characters")
	rootCmd.Flags().IntVar(&overlap, "overlap", cfg.Index.Overlap, "characters shared by consecutive passages")
	rootCmd.AddCommand(deleteCmd, statsCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	_ = sysLogger.Sync()
	if err != nil {
		if errors.Is(err, index.ErrIndexLocked) {
			color.Yellow("The index is open in another process. Stop the server or chat shell, then retry.")
		}
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}
