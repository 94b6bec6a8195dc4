package structure

import (
	"fmt"
	"path"
	"sort"

	"github.com/stabla/syntegrity/synt/fingerprint"
)

type fileEntry struct {
	name   string
	digest string
}

// Build assembles the directory tree for one scanned root from its digest
// maps. Keys are slash-form paths relative to the root, with "." naming the
// root itself. Every non-root path must have its parent directory present in
// the directory map.
func Build(files map[string]string, dirs map[string]fingerprint.DigestPair) (*Node, error) {
	rootPair, ok := dirs["."]
	if !ok {
		return nil, fmt.Errorf("digest set has no root directory entry")
	}

	nodes := map[string]*Node{
		".": {Name: ".", Path: ".", Contents: rootPair.Contents},
	}
	for rel, pair := range dirs {
		if rel == "." {
			continue
		}
		nodes[rel] = &Node{
			Name:     path.Base(rel),
			Path:     rel,
			Contents: pair.Contents,
		}
	}

	for rel, node := range nodes {
		if rel == "." {
			continue
		}
		parent, ok := nodes[path.Dir(rel)]
		if !ok {
			return nil, fmt.Errorf("directory %s has no parent entry %s", rel, path.Dir(rel))
		}
		parent.Children = append(parent.Children, node)
	}

	fileEntries := make(map[string][]fileEntry)
	for rel, digest := range files {
		parent := path.Dir(rel)
		if _, ok := nodes[parent]; !ok {
			return nil, fmt.Errorf("file %s has no parent entry %s", rel, parent)
		}
		fileEntries[parent] = append(fileEntries[parent], fileEntry{name: path.Base(rel), digest: digest})
	}
	for parent, entries := range fileEntries {
		sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })
		digests := make([]string, len(entries))
		for i, entry := range entries {
			digests[i] = entry.digest
		}
		nodes[parent].FileDigests = digests
	}

	for _, node := range nodes {
		sort.Slice(node.Children, func(i, j int) bool { return node.Children[i].Name < node.Children[j].Name })
	}

	return nodes["."], nil
}
