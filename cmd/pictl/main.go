// cmd/pictl/main.go
package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tamzrod/revpi/pkg/picontrol"
)

var rootCmd = &cobra.Command{
	Use:   "pictl",
	Short: "inspect and drive the piControl process image.",
	Long: `Read and write process image fields by name, list modules and issue
driver requests on a Revolution Pi.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if getFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}
	},
}

// interactive output carries labels; piped output is bare values.
var interactive = term.IsTerminal(int(os.Stdout.Fd()))

func getFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(4)
	}
	return r
}

func getString(cmd *cobra.Command, flag string) string {
	r, err := cmd.Flags().GetString(flag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(4)
	}
	return r
}

func openClient(cmd *cobra.Command) *picontrol.Client {
	c, err := picontrol.New(getString(cmd, "device"))
	if err != nil {
		fail(err)
	}
	return c
}

// fail reports err and exits with its error kind as status.
func fail(err error) {
	fmt.Fprintln(os.Stderr, err.Error())
	code := int(picontrol.KindOf(err))
	if code == 0 {
		code = 1
	}
	os.Exit(code)
}

func main() {
	rootCmd.PersistentFlags().StringP("device", "d", picontrol.DefaultDevice, "piControl device")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug logging")

	rootCmd.AddCommand(getCmd, setCmd, findCmd)
	rootCmd.AddCommand(devicesCmd, infoCmd, resetCmd, ioCmd, watchdogCmd, waitCmd, countersCmd, messageCmd)

	if err := rootCmd.Execute(); err != nil {
		fail(err)
	}
}
