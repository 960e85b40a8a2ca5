package cmd

import (
	"fmt"

	"github.com/gpc-hardware/gpchw"
	"github.com/spf13/cobra"
)

var (
	doutHigh bool
	doutLow  bool
)

var dinCmd = &cobra.Command{
	Use:   "din <channel>",
	Short: "Read a digital input",
	Args:  cobra.ExactArgs(1),
	RunE:  runDin,
}

var doutCmd = &cobra.Command{
	Use:   "dout <channel>",
	Short: "Drive or show a digital output",
	Long: `Drive a digital output with --high or --low, or print its state when
neither flag is given.

Examples:
  gpchw dout 2 --high
  gpchw dout 2`,
	Args: cobra.ExactArgs(1),
	RunE: runDout,
}

func init() {
	rootCmd.AddCommand(dinCmd)
	rootCmd.AddCommand(doutCmd)

	doutCmd.Flags().BoolVar(&doutHigh, "high", false, "drive the output high")
	doutCmd.Flags().BoolVar(&doutLow, "low", false, "drive the output low")
}

func runDin(cmd *cobra.Command, args []string) error {
	ch, err := parseChannel(args[0])
	if err != nil {
		return err
	}
	return withService(cmd, func(svc gpchw.PlateService) error {
		v, err := svc.ReadDigitalInput(ch)
		if err != nil {
			return err
		}
		fmt.Println(level(v))
		return nil
	})
}

func runDout(cmd *cobra.Command, args []string) error {
	if doutHigh && doutLow {
		return fmt.Errorf("cannot specify both --high and --low")
	}
	ch, err := parseChannel(args[0])
	if err != nil {
		return err
	}
	return withService(cmd, func(svc gpchw.PlateService) error {
		if doutHigh || doutLow {
			if verbose {
				fmt.Printf("Driving digital output %d %s\n", ch, level(doutHigh))
			}
			if err := svc.WriteDigitalOutput(ch, doutHigh); err != nil {
				return err
			}
		}
		v, err := svc.DigitalOutputState(ch)
		if err != nil {
			return err
		}
		fmt.Println(level(v))
		return nil
	})
}
