package main

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rm-hull/oil-painting-enhancer/cmd"
	"github.com/rm-hull/oil-painting-enhancer/internal"
	"github.com/rm-hull/oil-painting-enhancer/internal/config"
)

func main() {
	var port int
	var debug bool
	var in, out string
	var logger *zap.Logger

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal(err)
	}

	runGui := func(_ *cobra.Command, _ []string) {
		cmd.Gui(cfg, logger)
	}

	rootCmd := &cobra.Command{
		Use:  "oil-painting-enhancer",
		Long: `Oil painting image enhancer: auto contrast, Gaussian smoothing and Laplacian sharpening`,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			if debug {
				logger, err = zap.NewDevelopment()
			} else {
				logger, err = zap.NewProduction()
			}
			if err != nil {
				return err
			}
			internal.ShowVersion(logger)
			if debug {
				internal.UserInfo(logger)
				internal.LogEnvironment(logger)
			}
			return nil
		},
		Run:          runGui,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging (and pprof for the api-server) - WARNING: do not enable in production")
	cfg.BindFlags(rootCmd.PersistentFlags())

	guiCmd := &cobra.Command{
		Use:   "gui",
		Short: "Open the desktop enhancer window (default)",
		Run:   runGui,
	}

	enhanceCmd := &cobra.Command{
		Use:   "enhance --in <file> --out <file>",
		Short: "Enhance a single image without the GUI",
		RunE: func(_ *cobra.Command, _ []string) error {
			_, err := cmd.Enhance(afero.NewOsFs(), cfg, logger, in, out)
			return err
		},
	}
	enhanceCmd.Flags().StringVar(&in, "in", "", "Image to enhance")
	enhanceCmd.Flags().StringVar(&out, "out", "", "Where to write the enhanced image (.jpg or .png, default .jpg)")

	apiServerCmd := &cobra.Command{
		Use:   "api-server [--port <port>] [--debug]",
		Short: "Start HTTP API server",
		Run: func(_ *cobra.Command, _ []string) {
			cmd.ApiServer(cfg, logger, port, debug)
		},
	}
	apiServerCmd.Flags().IntVar(&port, "port", 8080, "Port to run HTTP server on")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		PersistentPreRun: func(_ *cobra.Command, _ []string) {},
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println(internal.Version())
		},
	}

	rootCmd.AddCommand(guiCmd, enhanceCmd, apiServerCmd, versionCmd)
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
	if logger != nil {
		_ = logger.Sync()
	}
}
