package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"soilscan/classifier"
	"soilscan/database"
	"soilscan/logging"
	"soilscan/pipeline"
	"soilscan/scanner"
	"soilscan/server"
	"soilscan/signalhandler"
	"soilscan/types"
)

var (
	imagePath    string
	city         string
	area         string
	csvPath      string
	folderPath   string
	surveyWorker int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the prediction API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalhandler.NotifyContext(cmd.Context())
		defer stop()

		p, source, cleanup := newPipeline(cfg)
		defer cleanup()

		srv := server.New(cfg, p, source, logging.L(), signalhandler.GetOptimalProcs())
		return srv.Run(ctx)
	},
}

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Classify one soil photo and print the recommendation as JSON",
	Example: `  soilscan predict --image plot.jpg --city Lomé --area 20000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, _, cleanup := newPipeline(cfg)
		defer cleanup()

		result, err := p.Run(cmd.Context(), pipeline.Request{
			ImagePath: imagePath,
			Locality:  city,
			Area:      area,
		})
		if err != nil {
			logging.LogPrediction(imagePath, "", false, err.Error())
			return err
		}
		logging.LogPrediction(imagePath, string(result.PredictedSoilType), true, "")

		_, rule := classifier.Explain(result.DominantColor)
		return printJSON(struct {
			*types.PredictionResult
			Rule string `json:"classification_rule"`
		}{result, rule})
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import the CSV knowledge base into a sqlite file",
	Example: `  soilscan import --csv knowledge_base_afrique.csv --database kb.db`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.DatabasePath == "" {
			return fmt.Errorf("--database is required")
		}
		source := csvPath
		if source == "" {
			source = cfg.KnowledgeBase
		}

		table, err := database.LoadCSV(source)
		if err != nil {
			return err
		}

		db, err := database.InitDatabase(cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := database.ImportRecords(db, table.Records()); err != nil {
			return err
		}

		stats, err := database.GetStats(db)
		if err != nil {
			return err
		}
		logging.LogInfo("Imported %d records (%d soil types, %d localities) into %s",
			stats.TotalRecords, stats.SoilTypes, stats.Localities, cfg.DatabasePath)
		return printJSON(stats)
	},
}

var surveyCmd = &cobra.Command{
	Use:   "survey",
	Short: "Classify every soil photo in a folder",
	Example: `  soilscan survey --folder ./field-2024 --city Kara --area 5000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalhandler.NotifyContext(cmd.Context())
		defer stop()

		p, _, cleanup := newPipeline(cfg)
		defer cleanup()

		summary, err := scanner.ScanFolder(ctx, p, scanner.ScanOptions{
			FolderPath: folderPath,
			Locality:   city,
			Area:       area,
			MaxWorkers: surveyWorker,
			Progress:   os.Stderr,
		})
		if summary != nil {
			enc := json.NewEncoder(os.Stdout)
			for _, r := range summary.Results {
				if encErr := enc.Encode(r); encErr != nil {
					return encErr
				}
			}
		}
		return err
	},
}

func init() {
	predictCmd.Flags().StringVar(&imagePath, "image", "", "Path to the soil photo")
	predictCmd.Flags().StringVar(&city, "city", "", "Locality of the plot")
	predictCmd.Flags().StringVar(&area, "area", "0", "Plot area in square meters")
	_ = predictCmd.MarkFlagRequired("image")
	_ = predictCmd.MarkFlagRequired("city")

	importCmd.Flags().StringVar(&csvPath, "csv", "", "CSV knowledge base to import (default from KNOWLEDGE_BASE)")

	surveyCmd.Flags().StringVar(&folderPath, "folder", "", "Folder containing soil photos")
	surveyCmd.Flags().StringVar(&city, "city", "", "Locality of the surveyed plots")
	surveyCmd.Flags().StringVar(&area, "area", "0", "Area of each plot in square meters")
	surveyCmd.Flags().IntVar(&surveyWorker, "workers", 0, "Parallel workers (default: 3/4 of the CPUs)")
	_ = surveyCmd.MarkFlagRequired("folder")
	_ = surveyCmd.MarkFlagRequired("city")
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
