package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tamzrod/revpi/pkg/picontrol"
)

var getCmd = &cobra.Command{
	Use:   "get NAME...",
	Short: "read fields by name.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := openClient(cmd)
		defer c.Close()

		for _, name := range args {
			v, err := c.GetValue(name)
			if err != nil {
				fail(err)
			}
			printValue(name, v)
		}
	},
}

var setCmd = &cobra.Command{
	Use:   "set NAME VALUE",
	Short: "write a field by name.",
	Long: `Write a field by name. Bits take 0, 1, true or false; wider fields take
an unsigned integer in decimal, 0x hex or 0b binary notation.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		c := openClient(cmd)
		defer c.Close()

		d, err := c.Resolver().Resolve(args[0])
		if err != nil {
			fail(err)
		}
		v, err := parseValue(d.Width, args[1])
		if err != nil {
			fail(err)
		}
		if err := c.Accessor().Write(d, v); err != nil {
			fail(err)
		}
	},
}

var findCmd = &cobra.Command{
	Use:   "find NAME...",
	Short: "show where fields live in the image.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := openClient(cmd)
		defer c.Close()

		for _, name := range args {
			d, err := c.Resolver().Resolve(name)
			if err != nil {
				fail(err)
			}
			if interactive {
				fmt.Println(d.String())
				continue
			}
			bit, _ := d.BitPosition()
			fmt.Printf("%s\t%d\t%d\t%d\n", d.Name, d.Address, bit, d.Width)
		}
	},
}

// parseValue reads s as a value of width w.
func parseValue(w picontrol.Width, s string) (picontrol.Value, error) {
	if w == picontrol.Width1 {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return picontrol.Value{}, fmt.Errorf("%q is not a bit value", s)
		}
		return picontrol.BitValue(b), nil
	}

	n, err := strconv.ParseUint(s, 0, int(w))
	if err != nil {
		return picontrol.Value{}, fmt.Errorf("%q is not a %s value: %w", s, w, err)
	}
	switch w {
	case picontrol.Width8:
		return picontrol.ByteValue(uint8(n)), nil
	case picontrol.Width16:
		return picontrol.WordValue(uint16(n)), nil
	case picontrol.Width32:
		return picontrol.DWordValue(uint32(n)), nil
	}
	return picontrol.Value{}, fmt.Errorf("invalid width %d", w)
}

func formatValue(v picontrol.Value) string {
	switch v.Width() {
	case picontrol.Width1:
		if v.Bool() {
			return "1"
		}
		return "0"
	default:
		return strconv.FormatUint(uint64(v.Uint32()), 10)
	}
}

func printValue(name string, v picontrol.Value) {
	if interactive {
		fmt.Printf("%s = %s\n", name, formatValue(v))
		return
	}
	fmt.Println(formatValue(v))
}
