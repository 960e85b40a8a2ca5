package cmd

import (
	"fmt"
	"strconv"

	"github.com/gpc-hardware/gpchw"
	"github.com/spf13/cobra"
)

var ainCmd = &cobra.Command{
	Use:   "ain <channel>",
	Short: "Read an ADC channel in volts",
	Args:  cobra.ExactArgs(1),
	RunE:  runAin,
}

var aoutCmd = &cobra.Command{
	Use:   "aout <channel> [value]",
	Short: "Set or show a DAC channel",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runAout,
}

var adcAllCmd = &cobra.Command{
	Use:   "adc-all",
	Short: "Read every ADC channel",
	Args:  cobra.NoArgs,
	RunE:  runADCAll,
}

func init() {
	rootCmd.AddCommand(ainCmd)
	rootCmd.AddCommand(aoutCmd)
	rootCmd.AddCommand(adcAllCmd)
}

func runAin(cmd *cobra.Command, args []string) error {
	ch, err := parseChannel(args[0])
	if err != nil {
		return err
	}
	return withService(cmd, func(svc gpchw.PlateService) error {
		v, err := svc.ReadAnalogInput(ch)
		if err != nil {
			return err
		}
		fmt.Printf("%.3f\n", v)
		return nil
	})
}

func runAout(cmd *cobra.Command, args []string) error {
	ch, err := parseChannel(args[0])
	if err != nil {
		return err
	}
	var value *float64
	if len(args) == 2 {
		v, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid value %q", args[1])
		}
		value = &v
	}
	return withService(cmd, func(svc gpchw.PlateService) error {
		if value != nil {
			if err := svc.WriteAnalogOutput(ch, *value); err != nil {
				return err
			}
		}
		v, err := svc.AnalogOutputValue(ch)
		if err != nil {
			return err
		}
		fmt.Printf("%.3f\n", v)
		return nil
	})
}

func runADCAll(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(svc gpchw.PlateService) error {
		values, err := svc.ReadAllADCs()
		if err != nil {
			return err
		}
		for ch, v := range values {
			fmt.Printf("%d: %.3f\n", ch, v)
		}
		return nil
	})
}
