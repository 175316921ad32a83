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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/arduino/go-paths-helper"
	semver "go.bug.st/relaxed-semver"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

// Latest selects the highest version listed in a manifest.
const Latest = "latest"

// Versions is the firmware release manifest (versions.json).
type Versions struct {
	LastUsedVersion string     `yaml:"last_used_version"`
	Versions        []*Release `yaml:"versions"`

	// document keeps the parsed file so that saving it preserves
	// fields this program doesn't know about.
	document *yaml.Node
}

// Release describes the images that make up one firmware release.
type Release struct {
	Version          string `yaml:"version"`
	Bootloader       string `yaml:"bootloader"`
	App0             string `yaml:"app0"`
	ToolVersion      string `yaml:"toolVersion"`
	OffsetBootloader string `yaml:"offset_bootloader"`
	OffsetPartitions string `yaml:"offset_partitions"`
	OffsetApp0       string `yaml:"offset_app0"`
	OffsetFirmware   string `yaml:"offset_firmware"`
}

// Tools is the SDK tools manifest (tools.json).
type Tools struct {
	Default  string         `yaml:"default"`
	Latest   string         `yaml:"latest"`
	Versions []*ToolRelease `yaml:"versions"`
}

// ToolRelease is a single SDK tools version.
type ToolRelease struct {
	Version string `yaml:"version"`
}

// LoadVersions reads a firmware release manifest. JSON and YAML files are
// both accepted.
func LoadVersions(file *paths.Path) (*Versions, error) {
	data, err := file.ReadFile()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", file, err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", file, err)
	}
	versions := &Versions{}
	if err := doc.Decode(versions); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", file, err)
	}
	versions.document = &doc
	return versions, nil
}

// LoadTools reads a tools manifest.
func LoadTools(file *paths.Path) (*Tools, error) {
	data, err := file.ReadFile()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", file, err)
	}
	tools := &Tools{}
	if err := yaml.Unmarshal(data, tools); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", file, err)
	}
	return tools, nil
}

// Get returns the release with the given version. "latest" selects the
// highest version in the manifest.
func (v *Versions) Get(version string) (*Release, error) {
	if version == Latest {
		return v.latest()
	}
	idx := slices.IndexFunc(v.Versions, func(r *Release) bool { return r.Version == version })
	if idx == -1 {
		return nil, fmt.Errorf("version %s not found in versions manifest", version)
	}
	return v.Versions[idx], nil
}

func (v *Versions) latest() (*Release, error) {
	var latest *Release
	var latestVersion *semver.RelaxedVersion
	for _, release := range v.Versions {
		current := parseVersion(release.Version)
		if latest == nil || current.GreaterThan(latestVersion) {
			latest, latestVersion = release, current
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("no versions in versions manifest")
	}
	return latest, nil
}

// SetLastUsed records version as the last flashed release.
func (v *Versions) SetLastUsed(version string) error {
	if _, err := v.Get(version); err != nil {
		return err
	}
	v.LastUsedVersion = version
	if v.document == nil {
		return nil
	}
	root := v.document
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("invalid versions manifest: not an object")
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == "last_used_version" {
			value := root.Content[i+1]
			value.Kind = yaml.ScalarNode
			value.Tag = "!!str"
			value.Value = version
			return nil
		}
	}
	root.Content = append(root.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "last_used_version"},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: version})
	return nil
}

// Save writes the manifest to file, as indented JSON if the file has a
// .json extension and as YAML otherwise.
func (v *Versions) Save(file *paths.Path) error {
	var data []byte
	var err error
	if strings.EqualFold(file.Ext(), ".json") {
		data, err = v.marshalJSON()
	} else if v.document != nil {
		data, err = yaml.Marshal(v.document)
	} else {
		data, err = yaml.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("encoding versions manifest: %w", err)
	}
	if err := file.WriteFile(data); err != nil {
		return fmt.Errorf("writing %s: %w", file, err)
	}
	return nil
}

func (v *Versions) marshalJSON() ([]byte, error) {
	var content interface{}
	if v.document != nil {
		if err := v.document.Decode(&content); err != nil {
			return nil, err
		}
	} else {
		// round trip through YAML to apply the field names of the manifest
		data, err := yaml.Marshal(v)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, &content); err != nil {
			return nil, err
		}
	}
	data, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Resolve translates "default", "latest" or an empty string into a tools
// version and checks that it is listed in the manifest.
func (t *Tools) Resolve(version string) (string, error) {
	switch version {
	case "", "default":
		version = t.Default
	case Latest:
		version = t.Latest
	}
	if version == "" {
		return "", fmt.Errorf("no tools version selected")
	}
	idx := slices.IndexFunc(t.Versions, func(r *ToolRelease) bool { return r.Version == version })
	if idx == -1 {
		return "", fmt.Errorf("version %s not found in tools manifest", version)
	}
	return version, nil
}

// Sanitize converts a version into the name of the directory holding its
// files, e.g. v1.2.0 becomes v1_2_0.
func Sanitize(version string) string {
	return strings.ReplaceAll(version, ".", "_")
}

func parseVersion(version string) *semver.RelaxedVersion {
	return semver.ParseRelaxed(strings.TrimPrefix(version, "v"))
}
