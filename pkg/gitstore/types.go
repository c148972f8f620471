package gitstore

// ModeFile is the tree mode for regular files. Snapshots track content, not
// permissions, so every entry is written with this mode.
const ModeFile = "100644"

// TreeEntry is one file entry handed to BuildTree.
type TreeEntry struct {
	Mode string // git mode string, normally ModeFile
	Hash string // blob hash
	Path string // workspace-relative path, forward slashes
}

// TreeFile pairs a tracked file's workspace-relative path with its absolute
// location under the workspace root.
type TreeFile struct {
	Rel string
	Abs string
}
