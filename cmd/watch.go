package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/restruct-labs/restruct/formatter"
	tt "github.com/restruct-labs/restruct/internal/types"
	"github.com/restruct-labs/restruct/refine"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dirs...]",
	Short: "Re-refine interchange files as they change",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			fmt.Println("error: Please provide directory paths")
			os.Exit(1)
		}

		engine, err := refine.New(logger, cfgFile)
		if err != nil {
			logger.Fatal("Failed to initialize refinement engine", zap.Error(err))
		}

		report := func(path string, results []tt.Result) {
			fmt.Println(formatter.Generate(results))
		}
		if err := engine.StartWatching(args, report); err != nil {
			logger.Fatal("Failed to start watching", zap.Error(err))
		}
		defer func() {
			if err := engine.StopWatching(); err != nil {
				logger.Error("Error stopping watcher", zap.Error(err))
			}
		}()

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
	},
}
