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
	"runtime"
	"testing"

	"github.com/arduino/esp-fwuploader/manifest"
	"github.com/arduino/go-paths-helper"
	"github.com/stretchr/testify/require"
)

const versionsJSON = `{
  "last_used_version": "v1.0.0",
  "versions": [
    { "version": "v1.0.0", "bootloader": "bootloader_dio_80m.bin", "app0": "boot_app0.bin" },
    { "version": "v1.1.0", "bootloader": "bootloader_dio_80m.bin", "app0": "boot_app0.bin" }
  ]
}`

const toolsJSON = `{ "default": "2.0.14", "latest": "2.0.14", "versions": [ { "version": "2.0.14" } ] }`

func createReleaseTree(t *testing.T) *paths.Path {
	dir := paths.New(t.TempDir())
	for _, d := range []string{"build_files/v1_0_0", "build_files/v1_1_0", "tools/2_0_14/sdk_bin", "tools/2_0_14/partitions"} {
		require.NoError(t, dir.Join(d).MkdirAll())
	}
	require.NoError(t, dir.Join("build_files", "versions.json").WriteFile([]byte(versionsJSON)))
	require.NoError(t, dir.Join("tools", "tools.json").WriteFile([]byte(toolsJSON)))
	return dir
}

func lastUsedVersion(t *testing.T, dir *paths.Path) string {
	versions, err := manifest.LoadVersions(manifest.NewLayout(dir.String()).VersionsFile())
	require.NoError(t, err)
	return versions.LastUsedVersion
}

func TestReleaseFlags(t *testing.T) {
	cmd := NewCommand()
	require.Equal(t, "v1.0.0", cmd.Flags().Lookup("release").DefValue)
	require.Equal(t, ".", cmd.Flags().Lookup("root").DefValue)
	require.Equal(t, "/dev/ttyUSB0", cmd.Flags().Lookup("port").DefValue)
	require.Nil(t, cmd.Flags().Lookup("firmware_paths"))
}

func TestReleaseDryRunKeepsManifest(t *testing.T) {
	dir := createReleaseTree(t)
	cmd := NewCommand()
	require.NoError(t, cmd.ParseFlags([]string{"--root", dir.String(), "--release", "latest", "--dry-run"}))

	runRelease(cmd, nil)
	require.Equal(t, "v1.0.0", lastUsedVersion(t, dir))
}

func TestReleaseRecordsLastUsedVersion(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires the POSIX true command")
	}
	dir := createReleaseTree(t)
	cmd := NewCommand()
	require.NoError(t, cmd.ParseFlags([]string{"--root", dir.String(), "--release", "v1.1.0", "--esptool", "true"}))

	runRelease(cmd, nil)
	require.Equal(t, "v1.1.0", lastUsedVersion(t, dir))
}
