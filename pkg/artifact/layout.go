package artifact

// ReservedDir is the reserved directory name under which every on-disk
// artifact lives (spec.md §6's `.{reserved}` placeholder): `.maw/artifacts`,
// `.maw/workspaces`, `.maw/fileids`, and the per-workspace-directory
// `.maw-epoch` base-epoch pointer file.
const ReservedDir = "maw"
