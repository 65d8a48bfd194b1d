// Command mtkgpsctl drives a MediaTek GPS module's PMTK command surface
// and offline LOCUS flash images from the command line. It stands in for
// original_source/blong/src/main.rs's board-level entrypoint (LEDs,
// watchdog, BLE), which is out of scope for this driver's core: this CLI
// exposes exactly the driver's public surface instead.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/edgebound/mtkgps/config"
	"github.com/edgebound/mtkgps/locus"
	"github.com/edgebound/mtkgps/mtklog"
	"github.com/edgebound/mtkgps/pipeline"
	"github.com/edgebound/mtkgps/pmtk"
	"github.com/edgebound/mtkgps/transport/goserial"
)

var (
	device string
	baud   uint32
)

func main() {
	root := &cobra.Command{
		Use:   "mtkgpsctl",
		Short: "Control a MediaTek PMTK GPS module over a serial port",
	}
	root.PersistentFlags().StringVar(&device, "device", "/dev/ttyUSB0", "serial device path")
	root.PersistentFlags().Uint32Var(&baud, "baud", 9600, "serial baud rate")

	root.AddCommand(
		statusCmd(),
		startLoggingCmd(),
		stopLoggingCmd(),
		eraseLogsCmd(),
		setIntervalCmd(),
		dumpLocusCmd(),
		rebootCmd(),
		decodeFlashCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openDriver opens the real serial transport and wraps it in a pmtk.Driver
// with default tunables. The session's NMEA-output-disabled state is
// unknown at connect time, so it's conservatively assumed false.
func openDriver() (*pmtk.Driver, *goserial.Transport, error) {
	tun := config.Default()
	transport, err := goserial.Open(device, baud, tun.RxBufSize)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", device, err)
	}
	log, err := mtklog.New("mtkgpsctl")
	if err != nil {
		transport.Close()
		return nil, nil, err
	}
	var src pipeline.ByteSource = transport
	var writer pipeline.ByteWriter = transport
	driver := pmtk.NewDriver(src, writer, goserial.Delay{}, tun, log, false)
	return driver, transport, nil
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the logger's interval, on/off state, record count, and percent full",
		RunE: func(cmd *cobra.Command, args []string) error {
			driver, transport, err := openDriver()
			if err != nil {
				return err
			}
			defer transport.Close()

			status, err := driver.LoggerStatus()
			if err != nil {
				return err
			}
			fmt.Printf("interval=%ds on=%v records=%d full=%s\n",
				status.IntervalSeconds, status.IsOn, status.RecordCount, status.PercentFull)
			return nil
		},
	}
}

func startLoggingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start-logging",
		Short: "Start the LOCUS logger",
		RunE: func(cmd *cobra.Command, args []string) error {
			driver, transport, err := openDriver()
			if err != nil {
				return err
			}
			defer transport.Close()
			return driver.StartLogging()
		},
	}
}

func stopLoggingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop-logging",
		Short: "Stop the LOCUS logger",
		RunE: func(cmd *cobra.Command, args []string) error {
			driver, transport, err := openDriver()
			if err != nil {
				return err
			}
			defer transport.Close()
			return driver.StopLogging()
		},
	}
}

func eraseLogsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "erase-logs",
		Short: "Erase all LOCUS tracklogs",
		RunE: func(cmd *cobra.Command, args []string) error {
			driver, transport, err := openDriver()
			if err != nil {
				return err
			}
			defer transport.Close()
			return driver.EraseLogs()
		},
	}
}

func setIntervalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-interval <secs>",
		Short: "Set the LOCUS logging interval in seconds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var secs uint32
			if _, err := fmt.Sscanf(args[0], "%d", &secs); err != nil {
				return fmt.Errorf("invalid interval %q: %w", args[0], err)
			}
			driver, transport, err := openDriver()
			if err != nil {
				return err
			}
			defer transport.Close()
			return driver.ConfigureLoggerInterval(secs)
		},
	}
}

func dumpLocusCmd() *cobra.Command {
	var dropInvalid bool
	cmd := &cobra.Command{
		Use:   "dump-locus <output-file>",
		Short: "Read the full LOCUS tracklog over the PMTKLOX stream and write it as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			driver, transport, err := openDriver()
			if err != nil {
				return err
			}
			defer transport.Close()

			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			fmt.Fprintln(f, "timestamp,fix,lat,lon,height,checksum_ok")
			stats, err := driver.ReadLogs(func(p locus.LoggedPoint) {
				fix, _ := p.Fix()
				fmt.Fprintf(f, "%d,%s,%f,%f,%d,%v\n",
					p.Timestamp, fix, p.Lat, p.Lon, p.Height, p.ChecksumOK)
			}, locus.StreamOptions{DropInvalidPoints: dropInvalid})
			if err != nil {
				return err
			}
			fmt.Printf("decoded %d points (%d checksum failures)\n", stats.PacketsParsed, stats.InvalidPackets)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dropInvalid, "drop-invalid", false, "omit points failing the per-point checksum instead of keeping them")
	return cmd
}

func rebootCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "reboot {hot|warm|cold|factory}",
		Short:     "Reboot the module and wait for the boot handshake",
		Args:      cobra.ExactValidArgs(1),
		ValidArgs: []string{"hot", "warm", "cold", "factory"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds := map[string]pmtk.RebootKind{
				"hot":     pmtk.HotRestart,
				"warm":    pmtk.WarmRestart,
				"cold":    pmtk.ColdRestart,
				"factory": pmtk.FactoryReset,
			}
			driver, transport, err := openDriver()
			if err != nil {
				return err
			}
			defer transport.Close()
			return driver.Reboot(kinds[args[0]])
		},
	}
}

func decodeFlashCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode-flash <flash-image-file>",
		Short: "Decode a raw LOCUS flash image offline, without a serial port",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var decoder locus.FlashDecoder
			count := 0
			stats := decoder.Parse(data, func(p locus.Packet) {
				count++
				loc, ok := p.Location()
				if ok {
					fmt.Printf("#%d lat=%f lon=%f\n", count, loc.Lat(), loc.Lng())
				} else {
					fmt.Printf("#%d (no position)\n", count)
				}
			})
			fmt.Printf("sectors=%d invalid_sectors=%d empty_sectors=%d packets=%d invalid_packets=%d invalid_fields=%d\n",
				stats.SectorCount, stats.InvalidSectors, stats.EmptySectors, stats.PacketsParsed, stats.InvalidPackets, stats.InvalidFields)
			return nil
		},
	}
	return cmd
}
