/*
	esp-fwuploader
	Copyright (c) 2024 Arduino LLC.  All right reserved.

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU Affero General Public License as published
	by the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU Affero General Public License for more details.

	You should have received a copy of the GNU Affero General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/arduino/esp-fwuploader/cli/arguments"
	"github.com/arduino/esp-fwuploader/cli/common"
	"github.com/arduino/esp-fwuploader/cli/feedback"
	"github.com/arduino/esp-fwuploader/cli/globals"
	"github.com/arduino/esp-fwuploader/cli/release"
	"github.com/arduino/esp-fwuploader/cli/version"
	v "github.com/arduino/esp-fwuploader/version"
	"github.com/mattn/go-colorable"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	flashFlags    arguments.Flags
	toolFlags     arguments.ToolFlags
	firmwarePaths []string
	flashOffsets  []string
	outputFormat  string
	logFile       string
	logFormat     string
)

// NewCommand creates the root command, which flashes firmware images to
// an ESP board through esptool.
func NewCommand() *cobra.Command {
	fwuploaderCli := &cobra.Command{
		Use:   "esp-fwuploader",
		Short: "Upload firmware to ESP32.",
		Long:  "Writes one or more firmware images at the given flash offsets of an ESP board using esptool.",
		Example: "" +
			"  " + os.Args[0] + " --firmware_paths firmware.bin --flash_offsets 0x10000\n" +
			"  " + os.Args[0] + " --port COM10 --firmware_paths bootloader.bin,partitions.bin,firmware.bin --flash_offsets 0x1000,0x8000,0x10000\n" +
			"  " + os.Args[0] + " --chip esp32s3 --baud 921600 --firmware_paths app.bin --flash_offsets 0x10000 --dry-run\n",
		Args:             cobra.NoArgs,
		Run:              runUpload,
		PersistentPreRun: preRun,
	}

	fwuploaderCli.AddCommand(version.NewCommand())
	fwuploaderCli.AddCommand(release.NewCommand())

	flashFlags.AddToCommand(fwuploaderCli)
	toolFlags.AddToCommand(fwuploaderCli)
	fwuploaderCli.Flags().StringSliceVar(&firmwarePaths, "firmware_paths", nil, "Paths to firmware binaries, multiple values allowed")
	fwuploaderCli.Flags().StringSliceVar(&flashOffsets, "flash_offsets", nil, "Offsets in flash memory to write firmware, one for each firmware path")
	fwuploaderCli.MarkFlagRequired("firmware_paths")
	fwuploaderCli.MarkFlagRequired("flash_offsets")

	fwuploaderCli.PersistentFlags().StringVar(&outputFormat, "format", "text", "The output format, can be {text|json}.")
	fwuploaderCli.PersistentFlags().StringVar(&logFile, "log-file", "", "Path to the file where logs will be written")
	fwuploaderCli.PersistentFlags().StringVar(&logFormat, "log-format", "", "The output format for the logs, can be {text|json}.")
	fwuploaderCli.PersistentFlags().StringVar(&globals.LogLevel, "log-level", "info", "Messages with this level and above will be logged. Valid levels are: trace, debug, info, warn, error, fatal, panic")
	fwuploaderCli.PersistentFlags().BoolVarP(&globals.Verbose, "verbose", "v", false, "Print the logs on the standard output.")

	return fwuploaderCli
}

func runUpload(cmd *cobra.Command, args []string) {
	req := flashFlags.Request(firmwarePaths, flashOffsets)
	logrus.Infof("Uploading %d firmware images with %d baudrate to port: %s", len(firmwarePaths), req.BaudRate, req.Port)

	res, err := common.Upload(req, toolFlags.NewEsptool(), toolFlags.DryRun)
	if err != nil {
		common.Fail(res, err)
	}
	feedback.PrintResult(res)
}

// Convert the string passed to the `--log-level` option to the corresponding
// logrus formal level.
func toLogLevel(s string) (t logrus.Level, found bool) {
	t, found = map[string]logrus.Level{
		"trace": logrus.TraceLevel,
		"debug": logrus.DebugLevel,
		"info":  logrus.InfoLevel,
		"warn":  logrus.WarnLevel,
		"error": logrus.ErrorLevel,
		"fatal": logrus.FatalLevel,
		"panic": logrus.PanicLevel,
	}[s]

	return
}

func preRun(cmd *cobra.Command, args []string) {
	// Prepare logging
	if globals.Verbose {
		// if we print on stdout, do it in full colors
		logrus.SetOutput(colorable.NewColorableStdout())
		logrus.SetFormatter(&logrus.TextFormatter{
			ForceColors: true,
		})
	} else {
		logrus.SetOutput(io.Discard)
	}

	// Normalize the format strings
	logFormat = strings.ToLower(logFormat)
	if logFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			feedback.Fatal(fmt.Sprintf("Unable to open file for logging: %s", logFile), feedback.ErrBadArgument)
		}

		// Use a hook so we don't get color codes in the log file
		if logFormat == "json" {
			logrus.AddHook(lfshook.NewHook(file, &logrus.JSONFormatter{}))
		} else {
			logrus.AddHook(lfshook.NewHook(file, &logrus.TextFormatter{}))
		}
	}

	// Configure logging filter
	if lvl, found := toLogLevel(globals.LogLevel); !found {
		feedback.Fatal(fmt.Sprintf("Invalid option for --log-level: %s", globals.LogLevel), feedback.ErrBadArgument)
	} else {
		logrus.SetLevel(lvl)
	}

	//
	// Prepare the Feedback system
	//

	// normalize the format strings
	outputFormat = strings.ToLower(outputFormat)
	// check the right output format was passed
	format, found := feedback.ParseOutputFormat(outputFormat)
	if !found {
		feedback.Fatal(fmt.Sprintf("Invalid output format: %s", outputFormat), feedback.ErrBadArgument)
	}

	// use the output format to configure the Feedback
	feedback.SetFormat(format)

	logrus.Info(v.VersionInfo)

	if outputFormat != "text" {
		cmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
			logrus.Warn("Calling help on JSON format")
			feedback.Fatal("Invalid Call : should show Help, but it is available only in TEXT mode.", feedback.ErrBadArgument)
		})
	}
}
