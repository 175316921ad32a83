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

package upload

import (
	"fmt"
	"strconv"
)

// Flasher executes a flash-write given the full argument list of the
// external flashing tool.
type Flasher interface {
	Flash(args []string) error
}

// UploadRequest contains everything needed to write one or more firmware
// images to the flash memory of a board.
type UploadRequest struct {
	Port      string
	BaudRate  int
	Chip      string
	Before    string
	After     string
	FlashMode string
	FlashFreq string
	FlashSize string

	// FlashOffsets[i] is the address where FirmwarePaths[i] is written.
	FirmwarePaths []string
	FlashOffsets  []string
}

// Image is a firmware file paired with the flash offset it is written at.
type Image struct {
	Offset string `json:"offset"`
	Path   string `json:"path"`
}

func (i Image) String() string {
	return fmt.Sprintf("%s@%s", i.Path, i.Offset)
}

// Validate checks that paths and offsets are given and pair up.
func (r UploadRequest) Validate() error {
	if len(r.FirmwarePaths) == 0 || len(r.FlashOffsets) == 0 || len(r.FirmwarePaths) != len(r.FlashOffsets) {
		return &ConfigurationError{
			Message: "paths/offsets missing or length mismatch",
			Paths:   len(r.FirmwarePaths),
			Offsets: len(r.FlashOffsets),
		}
	}
	if r.BaudRate <= 0 {
		return &ConfigurationError{
			Message: fmt.Sprintf("invalid baud rate %d", r.BaudRate),
			Paths:   len(r.FirmwarePaths),
			Offsets: len(r.FlashOffsets),
		}
	}
	return nil
}

// Images returns the (offset, path) pairs of the request in order.
// The request must be valid.
func (r UploadRequest) Images() []Image {
	images := make([]Image, 0, len(r.FirmwarePaths))
	for i, path := range r.FirmwarePaths {
		images = append(images, Image{Offset: r.FlashOffsets[i], Path: path})
	}
	return images
}

// BuildArgs assembles the esptool command line for the request:
// global options first, then the write_flash command followed by
// every offset/path pair.
func BuildArgs(r UploadRequest) ([]string, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	args := []string{
		"--chip", r.Chip,
		"--port", r.Port,
		"--baud", strconv.Itoa(r.BaudRate),
		"--before", r.Before,
		"--after", r.After,
		"write_flash", "-z",
		"--flash_mode", r.FlashMode,
		"--flash_freq", r.FlashFreq,
		"--flash_size", r.FlashSize,
	}
	for _, image := range r.Images() {
		args = append(args, image.Offset, image.Path)
	}
	return args, nil
}

// Upload validates the request and hands the assembled arguments to the
// Flasher. Errors coming from the Flasher are returned as they are.
func Upload(r UploadRequest, f Flasher) error {
	args, err := BuildArgs(r)
	if err != nil {
		return err
	}
	return f.Flash(args)
}
