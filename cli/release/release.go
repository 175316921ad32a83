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

package release

import (
	"fmt"
	"os"

	"github.com/arduino/esp-fwuploader/cli/arguments"
	"github.com/arduino/esp-fwuploader/cli/common"
	"github.com/arduino/esp-fwuploader/cli/feedback"
	"github.com/arduino/esp-fwuploader/cli/globals"
	"github.com/arduino/esp-fwuploader/manifest"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	flashFlags arguments.Flags
	toolFlags  arguments.ToolFlags
	version    string
	root       string
)

// NewCommand creates a new `release` command
func NewCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "release",
		Short: "Flashes a firmware release to the board.",
		Long: "Flashes the bootloader, partition table, boot_app0 and application images of a firmware release " +
			"listed in build_files/versions.json, using the SDK tools listed in tools/tools.json.",
		Example: "" +
			"  " + os.Args[0] + " release --port /dev/ttyUSB0 --release v1.0.0\n" +
			"  " + os.Args[0] + " release --port COM10 --baud 921600 --release latest --root ./dist\n",
		Args: cobra.NoArgs,
		Run:  runRelease,
	}
	flashFlags.AddToCommand(command)
	toolFlags.AddToCommand(command)
	command.Flags().StringVar(&version, "release", globals.DefaultRelease, "Firmware release to flash, or latest")
	command.Flags().StringVar(&root, "root", ".", "Directory containing build_files and tools")
	return command
}

func runRelease(cmd *cobra.Command, args []string) {
	layout := manifest.NewLayout(root)

	versions, err := manifest.LoadVersions(layout.VersionsFile())
	if err != nil {
		feedback.Fatal(fmt.Sprintf("Error reading versions manifest: %s", err), feedback.ErrNoConfigFile)
	}
	tools, err := manifest.LoadTools(layout.ToolsFile())
	if err != nil {
		feedback.Fatal(fmt.Sprintf("Error reading tools manifest: %s", err), feedback.ErrNoConfigFile)
	}

	release, err := versions.Get(version)
	if err != nil {
		feedback.Fatal(err.Error(), feedback.ErrBadArgument)
	}
	images, err := layout.Images(versions, tools, release.Version)
	if err != nil {
		feedback.Fatal(err.Error(), feedback.ErrGeneric)
	}

	logrus.Infof("Uploading version %s with %d baudrate to port: %s", release.Version, flashFlags.BaudRate, flashFlags.Port)
	res, err := common.Upload(flashFlags.ImagesRequest(images), toolFlags.NewEsptool(), toolFlags.DryRun)
	if res != nil {
		res.Release = release.Version
	}
	if err != nil {
		common.Fail(res, err)
	}

	if !toolFlags.DryRun {
		if err := versions.SetLastUsed(release.Version); err != nil {
			feedback.Fatal(fmt.Sprintf("Error updating last used version: %s", err), feedback.ErrGeneric)
		}
		if err := versions.Save(layout.VersionsFile()); err != nil {
			feedback.Fatal(fmt.Sprintf("Error updating last used version: %s", err), feedback.ErrGeneric)
		}
		logrus.Infof("Last used version set to %s", release.Version)
	}
	feedback.PrintResult(res)
}
