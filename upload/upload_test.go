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
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingFlasher struct {
	calls [][]string
	err   error
}

func (f *recordingFlasher) Flash(args []string) error {
	f.calls = append(f.calls, args)
	return f.err
}

func defaultRequest() UploadRequest {
	return UploadRequest{
		Port:      "/dev/ttyUSB0",
		BaudRate:  115200,
		Chip:      "esp32",
		Before:    "default_reset",
		After:     "hard_reset",
		FlashMode: "dio",
		FlashFreq: "80m",
		FlashSize: "detect",
	}
}

var argsPrefix = []string{
	"--chip", "esp32",
	"--port", "/dev/ttyUSB0",
	"--baud", "115200",
	"--before", "default_reset",
	"--after", "hard_reset",
	"write_flash", "-z",
	"--flash_mode", "dio",
	"--flash_freq", "80m",
	"--flash_size", "detect",
}

func TestUploadSingleImage(t *testing.T) {
	req := defaultRequest()
	req.FirmwarePaths = []string{"a.bin"}
	req.FlashOffsets = []string{"0x1000"}

	f := &recordingFlasher{}
	require.NoError(t, Upload(req, f))
	require.Len(t, f.calls, 1)
	require.Equal(t, append(append([]string{}, argsPrefix...), "0x1000", "a.bin"), f.calls[0])
}

func TestUploadKeepsPairOrder(t *testing.T) {
	req := defaultRequest()
	req.FirmwarePaths = []string{"boot.bin", "app.bin"}
	req.FlashOffsets = []string{"0x0", "0x10000"}

	f := &recordingFlasher{}
	require.NoError(t, Upload(req, f))
	require.Len(t, f.calls, 1)
	args := f.calls[0]
	require.Equal(t, argsPrefix, args[:len(argsPrefix)])
	require.Equal(t, []string{"0x0", "boot.bin", "0x10000", "app.bin"}, args[len(argsPrefix):])
}

func TestUploadRejectsInvalidPairs(t *testing.T) {
	tests := []struct {
		name    string
		paths   []string
		offsets []string
	}{
		{"length mismatch", []string{"a.bin", "b.bin"}, []string{"0x0"}},
		{"more offsets", []string{"a.bin"}, []string{"0x0", "0x1000"}},
		{"no paths", nil, []string{"0x0"}},
		{"no offsets", []string{"a.bin"}, nil},
		{"both empty", []string{}, []string{}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			req := defaultRequest()
			req.FirmwarePaths = test.paths
			req.FlashOffsets = test.offsets

			f := &recordingFlasher{}
			err := Upload(req, f)
			var confErr *ConfigurationError
			require.ErrorAs(t, err, &confErr)
			require.Equal(t, len(test.paths), confErr.Paths)
			require.Equal(t, len(test.offsets), confErr.Offsets)
			require.Empty(t, f.calls)
		})
	}
}

func TestUploadRejectsInvalidBaudRate(t *testing.T) {
	req := defaultRequest()
	req.BaudRate = 0
	req.FirmwarePaths = []string{"a.bin"}
	req.FlashOffsets = []string{"0x1000"}

	f := &recordingFlasher{}
	err := Upload(req, f)
	var confErr *ConfigurationError
	require.ErrorAs(t, err, &confErr)
	require.Contains(t, err.Error(), "invalid baud rate 0")
	require.Empty(t, f.calls)
}

func TestUploadReturnsFlasherError(t *testing.T) {
	req := defaultRequest()
	req.FirmwarePaths = []string{"a.bin"}
	req.FlashOffsets = []string{"0x1000"}

	flashErr := errors.New("serial port busy")
	f := &recordingFlasher{err: flashErr}
	err := Upload(req, f)
	require.Same(t, flashErr, err)
	require.Len(t, f.calls, 1)
}

func TestBuildArgsPrefixFlagsAppearOnce(t *testing.T) {
	req := defaultRequest()
	req.FirmwarePaths = []string{"bootloader.bin", "partitions.bin", "boot_app0.bin", "firmware.bin"}
	req.FlashOffsets = []string{"0x1000", "0x8000", "0xe000", "0x10000"}

	args, err := BuildArgs(req)
	require.NoError(t, err)
	require.Len(t, args, len(argsPrefix)+2*len(req.FirmwarePaths))

	seen := map[string]int{}
	for _, arg := range args {
		seen[arg]++
	}
	for _, flag := range []string{"--chip", "--port", "--baud", "--before", "--after", "write_flash", "-z", "--flash_mode", "--flash_freq", "--flash_size"} {
		require.Equal(t, 1, seen[flag], flag)
	}
	tail := args[len(argsPrefix):]
	for i := range req.FirmwarePaths {
		require.Equal(t, req.FlashOffsets[i], tail[2*i])
		require.Equal(t, req.FirmwarePaths[i], tail[2*i+1])
	}
}

func TestBuildArgsIsIdempotent(t *testing.T) {
	req := defaultRequest()
	req.FirmwarePaths = []string{"boot.bin", "app.bin"}
	req.FlashOffsets = []string{"0x0", "0x10000"}

	first, err := BuildArgs(req)
	require.NoError(t, err)
	second, err := BuildArgs(req)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, []string{"boot.bin", "app.bin"}, req.FirmwarePaths)
	require.Equal(t, []string{"0x0", "0x10000"}, req.FlashOffsets)
}

func TestImages(t *testing.T) {
	req := defaultRequest()
	req.FirmwarePaths = []string{"boot.bin", "app.bin"}
	req.FlashOffsets = []string{"0x0", "0x10000"}

	images := req.Images()
	require.Equal(t, []Image{{Offset: "0x0", Path: "boot.bin"}, {Offset: "0x10000", Path: "app.bin"}}, images)
	require.Equal(t, "app.bin@0x10000", images[1].String())
}
