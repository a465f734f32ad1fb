package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/meshtools/go-tisbl/bootloader"
	"github.com/meshtools/go-tisbl/firmware"
)

var (
	flashAddress string
	writeErase   bool
	force        bool
	bankErase    bool
	verify       bool
)

var flashCmd = &cobra.Command{
	Use:   "flash BIN",
	Short: "Flash a firmware image",
	Long: `Flash a firmware image to the device. Intel HEX files (.hex) carry
their own load address; raw binaries are placed at --address.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		img, err := firmware.Load(args[0])
		if err != nil {
			return fmt.Errorf("failed to load firmware image: %w", err)
		}

		address := img.Start
		if cmd.Flags().Changed("address") || !img.HasStart {
			address, err = parseAddress(flashAddress)
			if err != nil {
				return err
			}
		}

		log.Info().
			Str("file", args[0]).
			Uint32("size", img.Size()).
			Uint32("address", address).
			Msg("loaded firmware image")

		dev, port, err := openDevice()
		if err != nil {
			return err
		}
		defer port.Close()

		fl := bootloader.New(dev,
			bootloader.WithLogger(log),
			bootloader.WithErase(writeErase),
			bootloader.WithBankErase(bankErase),
			bootloader.WithConfigOverwrite(force),
			bootloader.WithVerify(verify),
			bootloader.WithProgress(printProgress),
		)

		if err := fl.Flash(img.Data, address); err != nil {
			fmt.Println()
			return err
		}
		fmt.Println()
		return nil
	},
}

// parseAddress parses a flash address, with or without a 0x prefix.
func parseAddress(s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid flash address %q, must be hexadecimal, e.g. 0x00000000", s)
	}
	return uint32(v), nil
}

func printProgress(p bootloader.Progress) {
	fmt.Printf("\r%-9s %5.1f%%  %d/%d bytes  (%s)",
		p.Phase, p.Percentage, p.BytesWritten, p.TotalBytes,
		p.ElapsedTime.Round(100*time.Millisecond))
}

func init() {
	flashCmd.Flags().StringVarP(&flashAddress, "address", "a", "0x00000000", "flash address for raw binaries")
	flashCmd.Flags().BoolVarP(&writeErase, "write-erase", "e", false, "erase the target range before writing")
	flashCmd.Flags().BoolVarP(&force, "force", "f", false, "allow overwriting the CCFG (may lock you out of the device)")
	flashCmd.Flags().BoolVar(&bankErase, "bank-erase", false, "erase the whole flash bank instead of individual sectors")
	flashCmd.Flags().BoolVar(&verify, "verify", false, "verify the written image with the bootloader's CRC-32 command")

	rootCmd.AddCommand(flashCmd)
}
