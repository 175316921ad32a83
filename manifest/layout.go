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

package manifest

import (
	"fmt"

	"github.com/arduino/esp-fwuploader/upload"
	"github.com/arduino/go-paths-helper"
	"github.com/sirupsen/logrus"
)

// Flash offsets used when a release does not specify them.
const (
	DefaultOffsetBootloader = "0x1000"
	DefaultOffsetPartitions = "0x8000"
	DefaultOffsetApp0       = "0xe000"
	DefaultOffsetFirmware   = "0x10000"
)

// Layout locates manifests, firmware builds and SDK tools below a root
// directory:
//
//	build_files/versions.json
//	build_files/<version>/{firmware.bin,partitions.bin}
//	tools/tools.json
//	tools/<tool version>/{sdk_bin,partitions}/...
type Layout struct {
	Root *paths.Path
}

// NewLayout creates a Layout rooted at dir.
func NewLayout(dir string) *Layout {
	root := paths.New(dir)
	if root == nil {
		root = paths.New(".")
	}
	return &Layout{Root: root}
}

// VersionsFile is the path of the firmware release manifest.
func (l *Layout) VersionsFile() *paths.Path {
	return l.Root.Join("build_files", "versions.json")
}

// ToolsFile is the path of the SDK tools manifest.
func (l *Layout) ToolsFile() *paths.Path {
	return l.Root.Join("tools", "tools.json")
}

// FirmwareDir returns the directory holding the build of version.
func (l *Layout) FirmwareDir(version string) (*paths.Path, error) {
	dir := l.Root.Join("build_files", Sanitize(version))
	if isDir, err := dir.IsDirCheck(); err != nil || !isDir {
		return nil, fmt.Errorf("firmware directory not found for version %s, path: %s", version, dir)
	}
	return dir, nil
}

// ToolDir returns subdir of the directory of the tools version.
func (l *Layout) ToolDir(toolVersion, subdir string) (*paths.Path, error) {
	dir := l.Root.Join("tools", Sanitize(toolVersion))
	if subdir != "" {
		dir = dir.Join(subdir)
	}
	if isDir, err := dir.IsDirCheck(); err != nil || !isDir {
		return nil, fmt.Errorf("tool directory not found for version %s, path: %s", toolVersion, dir)
	}
	return dir, nil
}

// Images returns the images of a release in the order they are flashed:
// bootloader, partition table, boot_app0 and application firmware.
func (l *Layout) Images(versions *Versions, tools *Tools, version string) ([]upload.Image, error) {
	release, err := versions.Get(version)
	if err != nil {
		return nil, err
	}
	if release.Bootloader == "" || release.App0 == "" {
		return nil, fmt.Errorf("release %s: missing bootloader or app0 image name", release.Version)
	}
	firmwareDir, err := l.FirmwareDir(release.Version)
	if err != nil {
		return nil, err
	}
	toolVersion, err := tools.Resolve(release.ToolVersion)
	if err != nil {
		return nil, err
	}
	logrus.Infof("SDK tool version %s", toolVersion)

	sdkBinDir, err := l.ToolDir(toolVersion, "sdk_bin")
	if err != nil {
		return nil, err
	}
	partitionsDir, err := l.ToolDir(toolVersion, "partitions")
	if err != nil {
		return nil, err
	}

	return []upload.Image{
		{Offset: withDefault(release.OffsetBootloader, DefaultOffsetBootloader), Path: sdkBinDir.Join(release.Bootloader).String()},
		{Offset: withDefault(release.OffsetPartitions, DefaultOffsetPartitions), Path: firmwareDir.Join("partitions.bin").String()},
		{Offset: withDefault(release.OffsetApp0, DefaultOffsetApp0), Path: partitionsDir.Join(release.App0).String()},
		{Offset: withDefault(release.OffsetFirmware, DefaultOffsetFirmware), Path: firmwareDir.Join("firmware.bin").String()},
	}, nil
}

func withDefault(value, def string) string {
	if value == "" {
		return def
	}
	return value
}
