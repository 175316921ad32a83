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

package arguments

import (
	"github.com/arduino/esp-fwuploader/cli/globals"
	"github.com/arduino/esp-fwuploader/programmers/esptool"
	"github.com/arduino/esp-fwuploader/upload"
	"github.com/spf13/cobra"
)

// Flags contains the options forwarded to esptool.
// This is useful so all commands that flash a board
// expose the same flags with the same defaults.
type Flags struct {
	Port      string
	BaudRate  int
	Chip      string
	Before    string
	After     string
	FlashMode string
	FlashFreq string
	FlashSize string
}

// AddToCommand adds the flash option flags to the specified Command
func (f *Flags) AddToCommand(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Port, "port", globals.DefaultPort, "Serial port connected to the board, e.g.: COM10, /dev/ttyUSB0")
	cmd.Flags().IntVar(&f.BaudRate, "baud", globals.DefaultBaudRate, "Baud rate for serial communication")
	cmd.Flags().StringVar(&f.Chip, "chip", globals.DefaultChip, "Target chip, e.g.: esp32, esp32s3, esp8266")
	cmd.Flags().StringVar(&f.Before, "before", globals.DefaultBefore, "Action before flashing, e.g.: default_reset, no_reset")
	cmd.Flags().StringVar(&f.After, "after", globals.DefaultAfter, "Action after flashing, e.g.: hard_reset, no_reset")
	cmd.Flags().StringVar(&f.FlashMode, "flash_mode", globals.DefaultFlashMode, "Flash mode, e.g.: dio, qio, keep")
	cmd.Flags().StringVar(&f.FlashFreq, "flash_freq", globals.DefaultFlashFreq, "Flash frequency, e.g.: 80m, 40m, keep")
	cmd.Flags().StringVar(&f.FlashSize, "flash_size", globals.DefaultFlashSize, "Flash size, e.g.: detect, 4MB, keep")
}

// Request builds the upload request writing firmwarePaths[i] at flashOffsets[i].
func (f *Flags) Request(firmwarePaths, flashOffsets []string) upload.UploadRequest {
	return upload.UploadRequest{
		Port:          f.Port,
		BaudRate:      f.BaudRate,
		Chip:          f.Chip,
		Before:        f.Before,
		After:         f.After,
		FlashMode:     f.FlashMode,
		FlashFreq:     f.FlashFreq,
		FlashSize:     f.FlashSize,
		FirmwarePaths: firmwarePaths,
		FlashOffsets:  flashOffsets,
	}
}

// ImagesRequest builds the upload request for a list of images.
func (f *Flags) ImagesRequest(images []upload.Image) upload.UploadRequest {
	firmwarePaths := make([]string, 0, len(images))
	flashOffsets := make([]string, 0, len(images))
	for _, image := range images {
		firmwarePaths = append(firmwarePaths, image.Path)
		flashOffsets = append(flashOffsets, image.Offset)
	}
	return f.Request(firmwarePaths, flashOffsets)
}

// ToolFlags select the esptool installation used for flashing.
type ToolFlags struct {
	Executable string
	Python     string
	DryRun     bool
}

// AddToCommand adds the esptool flags to the specified Command
func (f *ToolFlags) AddToCommand(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Executable, "esptool", esptool.DefaultExecutable, "Path of the esptool executable")
	cmd.Flags().StringVar(&f.Python, "python", "", "Python interpreter used to run the esptool module, overrides --esptool")
	cmd.Flags().BoolVar(&f.DryRun, "dry-run", false, "Print the esptool command line without running it")
}

// NewEsptool returns the esptool selected by the flags.
func (f *ToolFlags) NewEsptool() *esptool.Esptool {
	if f.Python != "" {
		return esptool.NewPythonModule(f.Python)
	}
	return esptool.NewEsptool(f.Executable)
}
