package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cuemby/maw/pkg/mawtypes"
)

// epochPointerName is the fixed filename of the per-workspace-directory
// base-epoch pointer (spec.md §6): a plain text file holding the 40-hex
// epoch OID the workspace was created or last synced against, followed by
// a newline. Unlike the JSON artifacts, this is a one-line marker read on
// every workspace operation, not a structured document, so it gets its own
// minimal reader/writer rather than going through WriteJSONAtomic.
const epochPointerName = "." + ReservedDir + "-epoch"

// WriteEpochPointer writes epoch's hex OID to workdir's base-epoch pointer
// file, atomically.
func WriteEpochPointer(workdir string, epoch mawtypes.ObjId) error {
	path := filepath.Join(workdir, epochPointerName)
	return WriteAtomic(path, []byte(epoch.String()+"\n"), 0o644)
}

// ReadEpochPointer reads workdir's base-epoch pointer file.
func ReadEpochPointer(workdir string) (mawtypes.ObjId, error) {
	data, err := os.ReadFile(filepath.Join(workdir, epochPointerName))
	if err != nil {
		return mawtypes.ObjId{}, err
	}
	hex := strings.TrimSpace(string(data))
	id, err := mawtypes.ParseObjId(hex)
	if err != nil {
		return mawtypes.ObjId{}, fmt.Errorf("artifact: parse epoch pointer in %s: %w", workdir, err)
	}
	return id, nil
}
