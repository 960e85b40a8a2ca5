package cmd

import (
	"fmt"

	"github.com/gpc-hardware/gpchw"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show plate address and revisions",
	Args:  cobra.NoArgs,
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(svc gpchw.PlateService) error {
		info, err := svc.Info()
		if err != nil {
			return fmt.Errorf("failed to read plate info: %w", err)
		}
		fmt.Printf("Address:  %d\n", info.Address)
		printRevision("Firmware", info.Firmware)
		printRevision("Hardware", info.Hardware)
		return nil
	})
}

func printRevision(label, raw string) {
	if raw == "" {
		fmt.Printf("%s: unknown\n", label)
		return
	}
	v, err := gpchw.ParseRevision(raw)
	if err != nil {
		fmt.Printf("%s: %s\n", label, raw)
		return
	}
	fmt.Printf("%s: %s (%s)\n", label, v, raw)
}
