package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meshtools/go-tisbl/bootloader"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show chip ID, flash size and IEEE addresses",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dev, port, err := openDevice()
		if err != nil {
			return err
		}
		defer port.Close()

		chipID, err := dev.GetChipID()
		if err != nil {
			return fmt.Errorf("failed to read chip ID: %w", err)
		}
		fmt.Printf("Chip ID:           0x%08X\n", chipID)

		fl := bootloader.New(dev, bootloader.WithLogger(log))

		flashSize, err := fl.ReadFlashSize()
		if err != nil {
			return fmt.Errorf("failed to read flash size: %w", err)
		}
		fmt.Printf("Flash size:        %d K\n", flashSize/1024)

		primary, secondary, err := fl.ReadIEEEAddress()
		if err != nil {
			return fmt.Errorf("failed to read IEEE address: %w", err)
		}
		fmt.Printf("Primary address:   %s\n", primary)
		if secondary.Valid() {
			fmt.Printf("Secondary address: %s\n", secondary)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
