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
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/arduino/arduino-cli/executils"
	"github.com/sirupsen/logrus"
	semver "go.bug.st/relaxed-semver"
)

// DefaultExecutable is the name esptool is installed with by pip.
const DefaultExecutable = "esptool.py"

// Esptool runs the external esptool program. It implements upload.Flasher.
type Esptool struct {
	executable string
	prefix     []string
	stdout     io.Writer
	stderr     io.Writer
}

// NewEsptool creates an Esptool running `executable prefix... args...`.
func NewEsptool(executable string, prefix ...string) *Esptool {
	if executable == "" {
		executable = DefaultExecutable
	}
	return &Esptool{
		executable: executable,
		prefix:     prefix,
		stdout:     os.Stdout,
		stderr:     os.Stderr,
	}
}

// NewPythonModule creates an Esptool running the esptool module entry point
// through the given python interpreter.
func NewPythonModule(python string) *Esptool {
	return NewEsptool(python, "-m", "esptool")
}

// SetOutput changes where the output of the tool is written, a nil writer
// discards it.
func (e *Esptool) SetOutput(stdout, stderr io.Writer) {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	e.stdout = stdout
	e.stderr = stderr
}

// CommandLine returns the full command line that is run for args.
func (e *Esptool) CommandLine(args []string) []string {
	commandLine := append([]string{e.executable}, e.prefix...)
	return append(commandLine, args...)
}

// Flash runs esptool with args and waits for it to terminate. A non-zero
// exit status is reported as an *exec.ExitError.
func (e *Esptool) Flash(args []string) error {
	commandLine := e.CommandLine(args)
	logrus.Debugf("running: %s", strings.Join(commandLine, " "))
	cmd, err := executils.NewProcess(nil, commandLine...)
	if err != nil {
		return err
	}
	cmd.RedirectStdoutTo(e.stdout)
	cmd.RedirectStderrTo(e.stderr)
	return cmd.Run()
}

var versionRegexp = regexp.MustCompile(`v?(\d+\.\d+(\.\d+)?(-[0-9A-Za-z.-]+)?)`)

// Version queries the installed esptool version.
func (e *Esptool) Version(ctx context.Context) (*semver.RelaxedVersion, error) {
	cmd, err := executils.NewProcess(nil, e.CommandLine([]string{"version"})...)
	if err != nil {
		return nil, err
	}
	stdout, _, err := cmd.RunAndCaptureOutput(ctx)
	if err != nil {
		return nil, fmt.Errorf("querying esptool version: %w", err)
	}
	return parseVersion(string(stdout))
}

// parseVersion extracts the last version found in the output of
// `esptool.py version`, the first line may carry the version of the
// wrapper script instead.
func parseVersion(out string) (*semver.RelaxedVersion, error) {
	matches := versionRegexp.FindAllStringSubmatch(out, -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("no version found in esptool output: %q", strings.TrimSpace(out))
	}
	return semver.ParseRelaxed(matches[len(matches)-1][1]), nil
}
