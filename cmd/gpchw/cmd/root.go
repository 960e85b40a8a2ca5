package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/gpc-hardware/gpchw"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	address    int
	driverName string
	remote     bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "gpchw",
	Short: "Pi-Plates DAQC channel access",
	Long: `Read and drive the digital and analog channels of a DAQC plate.

Examples:
  gpchw info                          # Show plate address and revisions
  gpchw dout 3 --high                 # Drive digital output 3 high
  gpchw ain 0 --driver sim            # Read ADC channel 0 of the simulator
  gpchw adc-all --remote              # Read all ADCs through a worker process
  gpchw watch                         # Print plate events as they arrive`,
	Version:       gpchw.Version{Major: 0, Minor: 3, Patch: 0}.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "gpchw.json",
		"configuration file")
	rootCmd.PersistentFlags().IntVarP(&address, "address", "a", 0,
		"plate address (overrides the config file)")
	rootCmd.PersistentFlags().StringVarP(&driverName, "driver", "d", "",
		"driver: sim or gpio (overrides the config file)")
	rootCmd.PersistentFlags().BoolVarP(&remote, "remote", "r", false,
		"host the plate in a worker process")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig reads the config file and applies flags the user set.
func loadConfig(cmd *cobra.Command) (gpchw.Config, error) {
	cfg, err := gpchw.LoadConfig(configPath)
	if err != nil {
		return cfg, err
	}
	if cmd.Flags().Changed("address") {
		cfg.Address = address
	}
	if cmd.Flags().Changed("driver") {
		cfg.Driver = driverName
	}
	if verbose {
		fmt.Printf("Using %s driver, plate address %d\n", cfg.Driver, cfg.Address)
	}
	return cfg, cfg.Validate()
}

// openService opens the plate in process, or in a worker with --remote.
func openService(cmd *cobra.Command) (gpchw.PlateService, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if remote {
		if verbose {
			fmt.Println("Starting plate worker...")
		}
		return gpchw.NewPlateClient(cfg, nil)
	}
	return gpchw.OpenPlateService(cfg)
}

// withService runs fn against an open plate and closes it afterwards.
func withService(cmd *cobra.Command, fn func(gpchw.PlateService) error) error {
	svc, err := openService(cmd)
	if err != nil {
		return err
	}
	ferr := fn(svc)
	if err := svc.Close(); err != nil && ferr == nil {
		return err
	}
	return ferr
}

func parseChannel(arg string) (int, error) {
	ch, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid channel %q", arg)
	}
	return ch, nil
}

func level(v bool) string {
	if v {
		return "high"
	}
	return "low"
}
