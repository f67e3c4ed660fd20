package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/restruct-labs/restruct/formatter"
	"github.com/restruct-labs/restruct/internal"
	tt "github.com/restruct-labs/restruct/internal/types"
	"github.com/restruct-labs/restruct/refine"
)

var (
	refineJsonOutput bool
	outPath          string
	cacheDir         string
	noCache          bool
)

var refineCmd = &cobra.Command{
	Use:   "refine [paths...]",
	Short: "Run the normal refinement process",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			fmt.Println("error: Please provide file or directory paths")
			os.Exit(1)
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		engine, err := refine.New(logger, cfgFile)
		if err != nil {
			logger.Fatal("Failed to initialize refinement engine", zap.Error(err))
		}

		processor := refine.ProcessFile
		if !noCache {
			cache, err := internal.NewCache(cacheDir)
			if err != nil {
				logger.Fatal("Failed to open result cache", zap.Error(err))
			}
			processor = refine.ProcessFileCached(cache)
		}

		runRefineProcess(ctx, logger, engine, args, processor, refineJsonOutput, outPath)
	},
}

func init() {
	refineCmd.Flags().BoolVar(&refineJsonOutput, "json", false, "Output results in JSON format")
	refineCmd.Flags().StringVarP(&outPath, "output", "o", "", "Output path (when using JSON)")
	refineCmd.Flags().StringVar(&cacheDir, "cache-dir", ".restruct-cache", "Directory for the result cache")
	refineCmd.Flags().BoolVar(&noCache, "no-cache", false, "Bypass the result cache")
}

func runRefineProcess(
	ctx context.Context,
	logger *zap.Logger,
	engine refine.Engine,
	paths []string,
	processor func(refine.Engine, string) ([]tt.Result, error),
	isJson bool,
	jsonOutput string,
) {
	results, err := refine.ProcessFiles(ctx, logger, engine, paths, processor)
	if err != nil {
		logger.Error("Error processing files", zap.Error(err))
		os.Exit(1)
	}

	printResults(logger, results, isJson, jsonOutput)
}

func printResults(logger *zap.Logger, results []tt.Result, isJson bool, jsonOutput string) {
	if !isJson {
		// text output
		sorted := make([]tt.Result, len(results))
		copy(sorted, results)
		sort.SliceStable(sorted, func(i, j int) bool {
			if sorted[i].Filename != sorted[j].Filename {
				return sorted[i].Filename < sorted[j].Filename
			}
			return sorted[i].Function < sorted[j].Function
		})
		fmt.Println(formatter.Generate(sorted))
		fmt.Println(formatter.Summary(sorted))
		return
	}

	// JSON output
	resultsByFile := make(map[string][]tt.Result)
	for _, result := range results {
		resultsByFile[result.Filename] = append(resultsByFile[result.Filename], result)
	}
	d, err := json.Marshal(resultsByFile)
	if err != nil {
		logger.Error("Error marshalling results to JSON", zap.Error(err))
		return
	}
	if jsonOutput == "" {
		fmt.Println(string(d))
		return
	}
	f, err := os.Create(jsonOutput)
	if err != nil {
		logger.Error("Error creating JSON output file", zap.Error(err))
		return
	}
	defer f.Close()
	if _, err := f.Write(d); err != nil {
		logger.Error("Error writing JSON output file", zap.Error(err))
	}
}
