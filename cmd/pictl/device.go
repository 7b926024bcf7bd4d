package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/tamzrod/revpi/pkg/picontrol/kb"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "list the connected modules.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c := openClient(cmd)
		defer c.Close()

		devs, err := c.Channel().ListDevices()
		if err != nil {
			fail(err)
		}
		if interactive {
			fmt.Printf("%-4s %-6s %-10s %-8s %-6s %-6s %s\n", "addr", "type", "serial", "version", "in", "out", "active")
		}
		for _, d := range devs {
			printDevice(d)
		}
	},
}

var infoCmd = &cobra.Command{
	Use:   "info ADDRESS",
	Short: "show one module.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		addr, err := parseUint(args[0], 8)
		if err != nil {
			fail(err)
		}

		c := openClient(cmd)
		defer c.Close()

		d, err := c.Channel().DeviceInfo(uint8(addr))
		if err != nil {
			fail(err)
		}
		printDevice(d)
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "reload the driver configuration and restart the bridge.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c := openClient(cmd)
		defer c.Close()

		if err := c.Channel().Reset(); err != nil {
			fail(err)
		}
	},
}

var ioCmd = &cobra.Command{
	Use:       "io stop|start|toggle",
	Short:     "stop, start or toggle IO communication.",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"stop", "start", "toggle"},
	Run: func(cmd *cobra.Command, args []string) {
		c := openClient(cmd)
		defer c.Close()

		var err error
		switch args[0] {
		case "stop":
			err = c.Channel().StopIO()
		case "start":
			err = c.Channel().StartIO()
		case "toggle":
			var stopped bool
			if stopped, err = c.Channel().ToggleIO(); err == nil {
				if stopped {
					fmt.Println("stopped")
				} else {
					fmt.Println("running")
				}
			}
		}
		if err != nil {
			fail(err)
		}
	},
}

var watchdogCmd = &cobra.Command{
	Use:   "watchdog PERIOD",
	Short: "arm the output watchdog (0 disarms).",
	Long: `Arm the output watchdog of the handle. PERIOD is a duration such as
500ms or 2s, or a plain number of milliseconds. The watchdog belongs to
the handle, so it only guards while this command keeps it open; use
--hold to keep the handle open until interrupted.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		period, err := parsePeriod(args[0])
		if err != nil {
			fail(err)
		}

		c := openClient(cmd)
		defer c.Close()

		if err := c.Channel().SetWatchdog(period); err != nil {
			fail(err)
		}
		if getFlag(cmd, "hold") {
			// the driver ends the watchdog when the handle closes
			select {}
		}
	},
}

var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "block until the driver is reset.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c := openClient(cmd)
		defer c.Close()

		ev, err := c.Channel().WaitForEvent()
		if err != nil {
			fail(err)
		}
		fmt.Println(ev)
	},
}

var countersCmd = &cobra.Command{
	Use:   "counters ADDRESS BITFIELD",
	Short: "reset counters of a DIO module.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		addr, err := parseUint(args[0], 8)
		if err != nil {
			fail(err)
		}
		bits, err := parseUint(args[1], 16)
		if err != nil {
			fail(err)
		}

		c := openClient(cmd)
		defer c.Close()

		if err := c.Channel().ResetCounters(uint8(addr), uint16(bits)); err != nil {
			fail(err)
		}
	},
}

var messageCmd = &cobra.Command{
	Use:   "message",
	Short: "print the last driver message.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c := openClient(cmd)
		defer c.Close()

		msg, err := c.Channel().LastMessage()
		if err != nil {
			fail(err)
		}
		fmt.Println(msg)
	},
}

func init() {
	watchdogCmd.Flags().Bool("hold", false, "keep the handle open")
}

func printDevice(d kb.DeviceInfo) {
	version := fmt.Sprintf("%d.%d", d.SWMajor, d.SWMinor)
	if interactive {
		fmt.Printf("%-4d %-6d %-10d %-8s %-6d %-6d %t\n",
			d.Address, d.ModuleType, d.SerialNumber, version, d.InputLength, d.OutputLength, d.IsActive())
		return
	}
	fmt.Printf("%d\t%d\t%d\t%s\t%d\t%d\t%d\t%d\t%t\n",
		d.Address, d.ModuleType, d.SerialNumber, version,
		d.BaseOffset, d.InputOffset, d.InputLength, d.OutputLength, d.IsActive())
}

func parseUint(s string, bits int) (uint64, error) {
	n, err := strconv.ParseUint(s, 0, bits)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", s, err)
	}
	return n, nil
}

func parsePeriod(s string) (time.Duration, error) {
	if ms, err := strconv.ParseUint(s, 10, 32); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%q is not a period", s)
	}
	return d, nil
}
