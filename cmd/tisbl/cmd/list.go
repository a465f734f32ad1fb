package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meshtools/go-tisbl/ports"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List serial ports",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		infos, err := ports.List()
		if err != nil {
			return err
		}
		if len(infos) == 0 {
			fmt.Println("No serial ports found")
			return nil
		}

		for _, info := range infos {
			if info.USB == nil {
				fmt.Println(info.Port)
				continue
			}
			fmt.Printf("%s\t%04X:%04X", info.Port, info.USB.VID, info.USB.PID)
			if info.USB.Product != "" {
				fmt.Printf("\t%s", info.USB.Product)
			}
			if info.USB.Serial != "" {
				fmt.Printf("\t(serial %s)", info.USB.Serial)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
