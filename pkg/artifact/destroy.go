package artifact

import (
	"path/filepath"
	"time"

	"github.com/cuemby/maw/pkg/mawtypes"
)

// CaptureMode describes how a destroyed workspace's working-copy state was
// preserved (spec.md §6), mirroring the original's RecordCaptureMode.
type CaptureMode string

const (
	CaptureDirtySnapshot CaptureMode = "dirty_snapshot"
	CaptureHeadOnly      CaptureMode = "head_only"
	CaptureNone          CaptureMode = "none"
)

// DestroyReason discriminates a standalone `ws destroy` from one folded
// into a merge's cleanup step.
type DestroyReason string

const (
	DestroyReasonDestroy      DestroyReason = "destroy"
	DestroyReasonMergeDestroy DestroyReason = "merge_destroy"
)

// DestroyRecord is the immutable JSON document written at
// .maw/artifacts/ws/<ws>/destroy/<timestamp>.json (spec.md §6), translated
// from the original's DestroyRecord with the same field names.
type DestroyRecord struct {
	WorkspaceId   mawtypes.WorkspaceId `json:"workspace_id"`
	DestroyedAt   time.Time            `json:"destroyed_at"`
	FinalHead     mawtypes.ObjId       `json:"final_head"`
	FinalHeadRef  string               `json:"final_head_ref,omitempty"`
	SnapshotOid   *mawtypes.ObjId      `json:"snapshot_oid,omitempty"`
	SnapshotRef   string               `json:"snapshot_ref,omitempty"`
	CaptureMode   CaptureMode          `json:"capture_mode"`
	DirtyFiles    []mawtypes.Path      `json:"dirty_files,omitempty"`
	BaseEpoch     mawtypes.ObjId       `json:"base_epoch"`
	DestroyReason DestroyReason        `json:"destroy_reason"`
	ToolVersion   string               `json:"tool_version"`
}

// LatestPointer is the `{ record, destroyed_at }` pointer written at
// .maw/artifacts/ws/<ws>/destroy/latest.json, atomically updated to name
// the most recent destroy record (spec.md §6).
type LatestPointer struct {
	Record      string    `json:"record"`
	DestroyedAt time.Time `json:"destroyed_at"`
}

// destroyDir returns .maw/artifacts/ws/<ws>/destroy under root.
func destroyDir(root, ws string) string {
	return filepath.Join(root, "."+ReservedDir, "artifacts", "ws", ws, "destroy")
}

// WriteDestroyRecord writes record as a new timestamped file (named via
// refs.FormatTimestamp's convention) and repoints latest.json at it, both
// atomically. Returns the record's own path.
func WriteDestroyRecord(root string, record DestroyRecord, timestamp string) (string, error) {
	ws := record.WorkspaceId.String()
	dir := destroyDir(root, ws)
	recordPath := filepath.Join(dir, timestamp+".json")
	if err := WriteJSONAtomic(recordPath, record); err != nil {
		return "", err
	}
	latest := LatestPointer{Record: filepath.Base(recordPath), DestroyedAt: record.DestroyedAt}
	if err := WriteJSONAtomic(filepath.Join(dir, "latest.json"), latest); err != nil {
		return "", err
	}
	return recordPath, nil
}

// ReadLatestDestroyRecord loads the most recent destroy record for ws, or
// returns an *os.PathError satisfying os.IsNotExist if the workspace has
// never been destroyed.
func ReadLatestDestroyRecord(root, ws string) (DestroyRecord, error) {
	dir := destroyDir(root, ws)
	var latest LatestPointer
	if err := ReadJSON(filepath.Join(dir, "latest.json"), &latest); err != nil {
		return DestroyRecord{}, err
	}
	var record DestroyRecord
	err := ReadJSON(filepath.Join(dir, latest.Record), &record)
	return record, err
}
