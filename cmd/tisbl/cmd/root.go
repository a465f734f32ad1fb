package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/loopholelabs/logging"
	"github.com/loopholelabs/logging/types"
	"github.com/spf13/cobra"
	"go.bug.st/serial"

	"github.com/meshtools/go-tisbl/device"
	"github.com/meshtools/go-tisbl/ports"
)

const defaultPort = "/dev/ttyACM0"

// readTimeout paces the transport's ACK waits; see device.SerialPort.
const readTimeout = 200 * time.Millisecond

var (
	portName     string
	familyName   string
	baudrate     int
	enableXOSC   bool
	blInvoke     bool
	blInverted   bool
	blActiveLow  bool
	verbosity    int

	log types.RootLogger
)

var rootCmd = &cobra.Command{
	Use:   "tisbl",
	Short: "Programmer for the Texas Instruments serial bootloader",
	Long: `Programmer for the serial (UART) bootloader in the ROM of Texas
Instruments CC2538, CC26x0/CC13x0 and CC26x2/CC13x2 devices.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if blInverted && !blInvoke {
			return fmt.Errorf("--bl-inverted requires --bl-invoke")
		}
		if blActiveLow && !blInvoke {
			return fmt.Errorf("--bl-active-low requires --bl-invoke")
		}

		log = logging.New(logging.Zerolog, "tisbl", os.Stderr)
		switch {
		case verbosity == 1:
			log.SetLevel(types.DebugLevel)
		case verbosity >= 2:
			log.SetLevel(types.TraceLevel)
		default:
			log.SetLevel(types.InfoLevel)
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&portName, "port", "p", defaultPort, "serial port to use")
	pf.StringVar(&familyName, "family", "cc26x2", "device family [cc2538|cc26x0|cc26x2]")
	pf.IntVarP(&baudrate, "baudrate", "b", 500000, "serial port baud rate")
	pf.BoolVarP(&enableXOSC, "enable-xosc", "x", false, "switch to the external oscillator (CC2538 only)")
	pf.BoolVar(&blInvoke, "bl-invoke", false, "invoke the bootloader by toggling the DTR/RTS pins before connecting")
	pf.BoolVar(&blInverted, "bl-inverted", false, "swap the DTR/RTS pin roles for --bl-invoke")
	pf.BoolVar(&blActiveLow, "bl-active-low", false, "drive the bootloader pin active-low for --bl-invoke")
	pf.CountVarP(&verbosity, "verbose", "v", "verbosity, -v (debug), -vv (trace)")
}

// openDevice opens the configured serial port and establishes a
// bootloader connection on it. The caller closes the returned port.
func openDevice() (*device.Device, serial.Port, error) {
	family, err := device.ParseFamily(familyName)
	if err != nil {
		return nil, nil, err
	}
	if enableXOSC && !family.SupportsSetXOSC() {
		return nil, nil, fmt.Errorf("--enable-xosc is only supported on the cc2538 family")
	}

	log.Info().Str("port", portName).Int("baudrate", baudrate).Msg("opening serial port")
	port, err := serial.Open(portName, ports.DefaultMode(baudrate))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open serial port %q: %w", portName, err)
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return nil, nil, fmt.Errorf("failed to set read timeout: %w", err)
	}

	if blInvoke {
		log.Info().Msg("invoking bootloader")
		if err := device.InvokeBootloader(port, blInverted, !blActiveLow); err != nil {
			port.Close()
			return nil, nil, fmt.Errorf("failed to invoke bootloader: %w", err)
		}
	}

	log.Info().Msg("connecting to the bootloader")
	dev, err := device.New(port, family, device.WithLogger(log))
	if err != nil {
		port.Close()
		return nil, nil, fmt.Errorf("failed to synchronize with the bootloader: %w", err)
	}

	ok, err := dev.Ping()
	if err != nil {
		port.Close()
		return nil, nil, err
	}
	if !ok {
		port.Close()
		return nil, nil, fmt.Errorf("ping was not acknowledged")
	}

	if enableXOSC {
		log.Info().Msg("switching to the external oscillator")
		if err := dev.SetXOSC(); err != nil {
			port.Close()
			return nil, nil, fmt.Errorf("failed to switch to XOSC: %w", err)
		}
	}

	return dev, port, nil
}
