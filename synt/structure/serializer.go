package structure

import "strings"

// Render produces the nested textual fingerprint for a built tree. Per
// level, file digests come first, then each subdirectory renders as its
// contents digest immediately followed by its own children in brackets.
// Sibling tokens join with "/"; an empty directory renders as "<digest>[]".
// The whole tree is wrapped once more with the root's contents digest.
func Render(root *Node) string {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(root.Contents)
	b.WriteString("[")
	renderChildren(&b, root)
	b.WriteString("]")
	b.WriteString("]")
	return b.String()
}

func renderChildren(b *strings.Builder, node *Node) {
	first := true
	for _, digest := range node.FileDigests {
		if !first {
			b.WriteString("/")
		}
		b.WriteString(digest)
		first = false
	}
	for _, child := range node.Children {
		if !first {
			b.WriteString("/")
		}
		b.WriteString(child.Contents)
		b.WriteString("[")
		renderChildren(b, child)
		b.WriteString("]")
		first = false
	}
}
