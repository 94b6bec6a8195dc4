// Package structure renders a computed digest set into the nested textual
// fingerprint for a scanned tree.
package structure

// Node is one directory in the rendered tree: its contents digest plus its
// ordered children. File children contribute only their digests, ordered by
// file name; directory children are full nodes ordered by directory name.
type Node struct {
	Name        string
	Path        string // slash-form path relative to the scan root
	Contents    string
	FileDigests []string
	Children    []*Node
}
