package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gpc-hardware/gpchw"
	"github.com/spf13/cobra"
)

var watchPin string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print plate events until interrupted",
	Long: `Wait on the plate interrupt line and print every event bit the plate
raises. Runs until Ctrl-C.

Examples:
  gpchw watch
  gpchw watch --pin GPIO21`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchPin, "pin", "",
		"interrupt line (defaults to the config file, then GPIO20)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if remote {
		return fmt.Errorf("watch needs the interrupt line and cannot run with --remote")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	pinName := cfg.InterruptPin
	if watchPin != "" {
		pinName = watchPin
	}
	if pinName == "" {
		pinName = gpchw.DefaultInterruptPin
	}

	plate, err := cfg.OpenPlate()
	if err != nil {
		return err
	}
	pin, err := gpchw.OpenInterruptPin(pinName)
	if err != nil {
		return err
	}
	mgr, err := gpchw.NewInterruptManager(plate, pin)
	if err != nil {
		return err
	}
	for bit := 0; bit < gpchw.InterruptBits; bit++ {
		mgr.RegisterCallback(bit, func(bit int) {
			fmt.Printf("event bit %d\n", bit)
		})
	}
	if err := mgr.ResetRegister(); err != nil {
		return fmt.Errorf("failed to clear pending events: %w", err)
	}

	if verbose {
		fmt.Printf("Watching %s for %s\n", pinName, plate)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := mgr.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
