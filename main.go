package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"soilscan/config"
	"soilscan/database"
	"soilscan/imageprocessor"
	"soilscan/imageprocessor/native"
	"soilscan/logging"
	"soilscan/matcher"
	"soilscan/pipeline"
	"soilscan/signalhandler"
)

var (
	// Global flags
	debugMode     bool
	logFile       string
	kbPath        string
	dbPath        string
	extractorName string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "soilscan",
	Short: "Classify soil photos and recommend crops and fertilizer",
	Long: `soilscan reduces a soil photo to its dominant colour, maps the colour to a
soil type and looks up crop, fertilizer and yield recommendations for the
locality in the reference knowledge base.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		applyFlags(cmd, loaded)
		if err := loaded.Validate(); err != nil {
			return err
		}
		cfg = loaded

		if err := logging.SetupLogger(logging.Options{LogFile: cfg.LogFile, Debug: cfg.Debug()}); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseLogger()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "logfile", "", "Also write logs to this file")
	rootCmd.PersistentFlags().StringVar(&kbPath, "kb", "", "Knowledge base CSV (default from KNOWLEDGE_BASE)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "database", "", "Knowledge base sqlite file, takes precedence over --kb")
	rootCmd.PersistentFlags().StringVar(&extractorName, "extractor", "", "Colour extractor: opencv or native")

	rootCmd.AddCommand(serveCmd, predictCmd, importCmd, surveyCmd)
}

// applyFlags lets explicitly set flags override the environment
func applyFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("debug") && debugMode {
		c.LogLevel = "debug"
	}
	if flags.Changed("logfile") {
		c.LogFile = logFile
	}
	if flags.Changed("kb") {
		c.KnowledgeBase = kbPath
	}
	if flags.Changed("database") {
		c.DatabasePath = dbPath
	}
	if flags.Changed("extractor") {
		c.Extractor = extractorName
	}
}

// colorExtractor is a pipeline extractor that holds resources
type colorExtractor interface {
	pipeline.ColorExtractor
	Close() error
}

func newExtractor(c *config.Config) colorExtractor {
	if c.Extractor == config.ExtractorNative {
		return native.NewExtractor()
	}
	return imageprocessor.NewDominantColorExtractor(imageprocessor.NewImageLoaderRegistry(), c.ClusterSeed)
}

// loadKnowledgeBase loads the reference table once. A failure is kept in the
// source so every later lookup reports table_unavailable.
func loadKnowledgeBase(c *config.Config) *database.Source {
	source := database.LoadSource(func() (*database.Table, error) {
		if c.DatabasePath != "" {
			return database.LoadTable(c.DatabasePath)
		}
		return database.LoadCSV(c.KnowledgeBase)
	})
	if err := source.Err(); err != nil {
		logging.LogError("Knowledge base unavailable: %v", err)
	}
	return source
}

// newPipeline wires extractor, knowledge base and matcher
func newPipeline(c *config.Config) (*pipeline.Orchestrator, *database.Source, func()) {
	extractor := newExtractor(c)
	source := loadKnowledgeBase(c)
	cleanup := func() {
		if err := extractor.Close(); err != nil {
			logging.LogWarning("Failed to close extractor: %v", err)
		}
	}
	return pipeline.New(extractor, matcher.New(source)), source, cleanup
}

func main() {
	// cgo clustering does not benefit from more threads than this
	runtime.GOMAXPROCS(signalhandler.GetOptimalProcs())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
