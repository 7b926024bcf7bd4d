// cmd/pigen/main.go
package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tamzrod/revpi/pkg/gen"
	"github.com/tamzrod/revpi/pkg/rsc"
)

var rootCmd = &cobra.Command{
	Use:   "pigen [flags] [config.rsc]",
	Short: "generate fixed-address accessors from a PiCtory configuration.",
	Long: `Generate a Go file with a getter per field and a setter per output and
memory field of a PiCtory configuration. Without an argument the running
configuration of the RevPi is used.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if getFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}

		var (
			r    *rsc.RSC
			path string
			err  error
		)
		if len(args) == 1 {
			path = args[0]
			r, err = rsc.Load(path)
		} else {
			r, path, err = rsc.LoadDefault()
		}
		if err != nil {
			fmt.Println(err.Error())
			os.Exit(1)
		}
		log.WithField("config", path).Debug("pigen: configuration loaded")

		fields, err := gen.Plan(r)
		if err != nil {
			fmt.Println(err.Error())
			os.Exit(2)
		}

		opts := gen.Options{
			Output:  getString(cmd, "output"),
			Package: getString(cmd, "package"),
			Type:    getString(cmd, "type"),
			Source:  path,
		}
		if err := gen.Generate(fields, opts); err != nil {
			fmt.Println(err.Error())
			os.Exit(1)
		}
	},
}

func getFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	if err != nil {
		fmt.Println(err.Error())
		os.Exit(4)
	}
	return r
}

func getString(cmd *cobra.Command, flag string) string {
	r, err := cmd.Flags().GetString(flag)
	if err != nil {
		fmt.Println(err.Error())
		os.Exit(4)
	}
	return r
}

func main() {
	rootCmd.Flags().StringP("output", "o", "revpi_gen.go", "file to write")
	rootCmd.Flags().StringP("package", "p", "revpi", "package of the generated file")
	rootCmd.Flags().StringP("type", "t", "RevPi", "name of the generated type")
	rootCmd.Flags().BoolP("verbose", "v", false, "debug logging")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
