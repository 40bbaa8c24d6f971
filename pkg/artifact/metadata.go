package artifact

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// WorkspaceMode selects a workspace's lifecycle policy (spec.md §6).
type WorkspaceMode string

const (
	// ModeEphemeral is the default: nothing special protects the workspace
	// from destroy.
	ModeEphemeral WorkspaceMode = "ephemeral"
	ModePersistent WorkspaceMode = "persistent"
)

// WorkspaceMetadata is the per-workspace metadata document named
// .maw/workspaces/<ws>.toml (spec.md §6). The filename says TOML,
// matching the original's metadata.rs, but no TOML library exists anywhere
// in the example pack this engine was grounded on; it is encoded as YAML
// via gopkg.in/yaml.v3 instead (already a teacher dependency), a deliberate
// deviation recorded in DESIGN.md rather than hidden. The zero value is the
// default (ephemeral) metadata a missing file implies.
type WorkspaceMetadata struct {
	Mode WorkspaceMode `yaml:"mode"`
}

// metadataPath returns .maw/workspaces/<ws>.toml under root.
func metadataPath(root, ws string) string {
	return filepath.Join(root, "."+ReservedDir, "workspaces", ws+".toml")
}

// ReadWorkspaceMetadata loads ws's metadata, defaulting to
// WorkspaceMetadata{Mode: ModeEphemeral} when the file is absent (the
// original's documented "missing file means default" convention).
func ReadWorkspaceMetadata(root, ws string) (WorkspaceMetadata, error) {
	data, err := os.ReadFile(metadataPath(root, ws))
	if err != nil {
		if os.IsNotExist(err) {
			return WorkspaceMetadata{Mode: ModeEphemeral}, nil
		}
		return WorkspaceMetadata{}, err
	}
	var meta WorkspaceMetadata
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return WorkspaceMetadata{}, err
	}
	if meta.Mode == "" {
		meta.Mode = ModeEphemeral
	}
	return meta, nil
}

// WriteWorkspaceMetadata persists ws's metadata. Unlike the JSON artifacts
// in this package, the original never gave this file atomic-write
// treatment either (metadata.rs writes it with a plain fs::write), so this
// mirrors that rather than adding fsync/rename ceremony the spec doesn't
// ask for here.
func WriteWorkspaceMetadata(root, ws string, meta WorkspaceMetadata) error {
	path := metadataPath(root, ws)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(meta)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// DeleteWorkspaceMetadata removes ws's metadata file. A missing file is
// not an error, mirroring the original's no-op-on-absent delete.
func DeleteWorkspaceMetadata(root, ws string) error {
	err := os.Remove(metadataPath(root, ws))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
