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

package common

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/arduino/arduino-cli/table"
	"github.com/arduino/esp-fwuploader/cli/feedback"
	"github.com/arduino/esp-fwuploader/upload"
	"github.com/sirupsen/logrus"
	semver "go.bug.st/relaxed-semver"
)

// Tool is the flashing program driven by the upload commands.
type Tool interface {
	upload.Flasher
	CommandLine(args []string) []string
	SetOutput(stdout, stderr io.Writer)
	Version(ctx context.Context) (*semver.RelaxedVersion, error)
}

// ExecOutput contains the output of the flashing tool when it is
// captured instead of printed.
type ExecOutput struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
}

// UploadResult is the outcome of an upload.
type UploadResult struct {
	Release     string         `json:"release,omitempty"`
	Chip        string         `json:"chip"`
	Port        string         `json:"port"`
	Images      []upload.Image `json:"images"`
	CommandLine []string       `json:"command_line"`
	DryRun      bool           `json:"dry_run"`
	Output      *ExecOutput    `json:"output,omitempty"`
	Error       string         `json:"error,omitempty"`
}

func (r *UploadResult) String() string {
	if !r.DryRun {
		if r.Error != "" {
			return ""
		}
		return "Firmware uploaded successfully"
	}
	t := table.New()
	t.SetHeader("Offset", "Firmware")
	for _, image := range r.Images {
		t.AddRow(image.Offset, image.Path)
	}
	return t.Render() + "\n" + strings.Join(r.CommandLine, " ")
}

// Data implements feedback.Result interface
func (r *UploadResult) Data() interface{} {
	return r
}

// ErrorString implements feedback.ErrorResult interface
func (r *UploadResult) ErrorString() string {
	if r.Error == "" {
		return ""
	}
	return "Error during firmware flashing: " + r.Error
}

// Upload writes the images of req to the board using tool. In JSON mode the
// output of the tool is captured in the result, otherwise it goes to the
// terminal. A nil result is returned only if req is invalid.
func Upload(req upload.UploadRequest, tool Tool, dryRun bool) (*UploadResult, error) {
	args, err := upload.BuildArgs(req)
	if err != nil {
		return nil, err
	}
	res := &UploadResult{
		Chip:        req.Chip,
		Port:        req.Port,
		Images:      req.Images(),
		CommandLine: tool.CommandLine(args),
		DryRun:      dryRun,
	}
	if dryRun {
		return res, nil
	}

	if v, err := tool.Version(context.Background()); err != nil {
		logrus.WithError(err).Warn("Could not detect esptool version")
	} else {
		logrus.Debugf("esptool version: %s", v)
	}

	for _, image := range res.Images {
		logrus.Infof("Writing %s at %s", image.Path, image.Offset)
	}

	var stdout, stderr *bytes.Buffer
	if feedback.GetFormat() == feedback.JSON {
		stdout, stderr = new(bytes.Buffer), new(bytes.Buffer)
		tool.SetOutput(stdout, stderr)
	} else {
		tool.SetOutput(os.Stdout, os.Stderr)
	}

	err = upload.Upload(req, tool)
	if stdout != nil {
		res.Output = &ExecOutput{Stdout: stdout.String(), Stderr: stderr.String()}
	}
	if err != nil {
		res.Error = err.Error()
		return res, err
	}
	return res, nil
}

// ExitCode returns the process exit code matching an upload error. When
// esptool fails its own exit code is used.
func ExitCode(err error) feedback.ExitCode {
	var confErr *upload.ConfigurationError
	if errors.As(err, &confErr) {
		return feedback.ErrBadArgument
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
		return feedback.ExitCode(exitErr.ExitCode())
	}
	return feedback.ErrGeneric
}

// Fail reports an upload error and terminates the program.
func Fail(res *UploadResult, err error) {
	code := ExitCode(err)
	logrus.WithError(err).Errorf("Operation failed, exit code %d", code)
	if res == nil {
		feedback.Fatal(fmt.Sprintf("Error during firmware flashing: %s", err), code)
	}
	feedback.FatalResult(res, code)
}
