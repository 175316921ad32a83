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

package globals

// Defaults of the flash options, these match the esptool defaults
// used by the ESP32 Arduino core.
const (
	DefaultPort      = "/dev/ttyUSB0"
	DefaultBaudRate  = 115200
	DefaultChip      = "esp32"
	DefaultBefore    = "default_reset"
	DefaultAfter     = "hard_reset"
	DefaultFlashMode = "dio"
	DefaultFlashFreq = "80m"
	DefaultFlashSize = "detect"

	// DefaultRelease is the firmware release flashed by the release command
	DefaultRelease = "v1.0.0"
)

var (
	LogLevel string
	Verbose  bool
)
