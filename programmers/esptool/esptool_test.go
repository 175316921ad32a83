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

package esptool

import (
	"bytes"
	"errors"
	"os/exec"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommandLine(t *testing.T) {
	args := []string{"--chip", "esp32", "write_flash", "0x1000", "a.bin"}

	require.Equal(t,
		[]string{"esptool.py", "--chip", "esp32", "write_flash", "0x1000", "a.bin"},
		NewEsptool("").CommandLine(args))
	require.Equal(t,
		[]string{"python3", "-m", "esptool", "--chip", "esp32", "write_flash", "0x1000", "a.bin"},
		NewPythonModule("python3").CommandLine(args))

	// the argument list passed in must not be altered
	require.Equal(t, []string{"--chip", "esp32", "write_flash", "0x1000", "a.bin"}, args)
}

func TestParseVersion(t *testing.T) {
	v, err := parseVersion("esptool.py v4.7.0\n4.7.0\n")
	require.NoError(t, err)
	require.Equal(t, "4.7.0", v.String())

	v, err = parseVersion("esptool.py v3.3.4-dev\n3.3.4-dev\n")
	require.NoError(t, err)
	require.Equal(t, "3.3.4-dev", v.String())

	_, err = parseVersion("usage: esptool [-h]\n")
	require.Error(t, err)
}

func TestFlashForwardsArguments(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	stdout := new(bytes.Buffer)
	e := NewEsptool("sh", "-c", `echo "$@"`, "esptool")
	e.SetOutput(stdout, nil)

	err := e.Flash([]string{"--chip", "esp32", "write_flash", "0x1000", "a.bin"})
	require.NoError(t, err)
	require.Equal(t, "--chip esp32 write_flash 0x1000 a.bin\n", stdout.String())
}

func TestFlashPropagatesExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	e := NewEsptool("sh", "-c", "exit 3", "esptool")
	e.SetOutput(nil, nil)

	err := e.Flash([]string{"--chip", "esp32"})
	var exitErr *exec.ExitError
	require.True(t, errors.As(err, &exitErr))
	require.Equal(t, 3, exitErr.ExitCode())
}

func TestFlashMissingExecutable(t *testing.T) {
	e := NewEsptool("esptool-executable-that-does-not-exist")
	e.SetOutput(nil, nil)

	err := e.Flash([]string{"version"})
	require.Error(t, err)
	var exitErr *exec.ExitError
	require.False(t, errors.As(err, &exitErr))
}
