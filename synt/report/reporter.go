// Package report renders scan results to the console.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/stabla/syntegrity/synt/snapshot"
)

var separator = strings.Repeat("-", 50)

// Reporter writes per-root scan output and the final summary table.
type Reporter struct {
	out io.Writer
}

// NewReporter creates a reporter writing to out, defaulting to stdout.
func NewReporter(out io.Writer) *Reporter {
	if out == nil {
		out = os.Stdout
	}
	return &Reporter{out: out}
}

// PrintFileTarget renders the output block for a single-file scan target.
func (r *Reporter) PrintFileTarget(path, digest string) {
	fmt.Fprintf(r.out, "Processing file: %s\n", path)
	fmt.Fprintln(r.out, separator)
	fmt.Fprintf(r.out, "File hash: %s: %s\n", path, digest)
	fmt.Fprintln(r.out)
}

// PrintRoot renders the full output block for one scanned directory: file
// digests, folder digest pairs, the hierarchical structure fingerprint and
// the detected changes. File and folder lines are sorted by relative path
// so output is stable across runs.
func (r *Reporter) PrintRoot(snap *snapshot.Snapshot, structure string, events []snapshot.ChangeEvent) {
	fmt.Fprintf(r.out, "Processing directory: %s\n", snap.Root)
	fmt.Fprintln(r.out, separator)

	filePaths := make([]string, 0, len(snap.Files))
	for rel := range snap.Files {
		filePaths = append(filePaths, rel)
	}
	sort.Strings(filePaths)

	fmt.Fprintln(r.out, "Processing files:")
	for _, rel := range filePaths {
		fmt.Fprintf(r.out, "%s: %s\n", filepath.Join(snap.Root, rel), snap.Files[rel])
	}
	fmt.Fprintf(r.out, "Processed %d files\n", len(filePaths))
	fmt.Fprintln(r.out)

	dirPaths := make([]string, 0, len(snap.Dirs))
	for rel := range snap.Dirs {
		dirPaths = append(dirPaths, rel)
	}
	sort.Strings(dirPaths)

	fmt.Fprintln(r.out, "Processing folders:")
	for _, rel := range dirPaths {
		pair := snap.Dirs[rel]
		name := filepath.Base(filepath.Join(snap.Root, rel))
		fmt.Fprintf(r.out, "%s:[%s];[%s]\n", name, pair.Contents, pair.Structure)
	}
	fmt.Fprintf(r.out, "Processed %d folders\n", len(dirPaths))
	fmt.Fprintln(r.out)

	fmt.Fprintln(r.out, "Hierarchical Structure:")
	fmt.Fprintln(r.out, separator)
	fmt.Fprintln(r.out, structure)
	fmt.Fprintln(r.out)

	fmt.Fprintln(r.out, "Change Detection:")
	fmt.Fprintln(r.out, separator)
	if len(events) > 0 {
		fmt.Fprintln(r.out, "Changes detected:")
		for _, event := range events {
			fmt.Fprintf(r.out, "  • %s\n", changeLine(event))
		}
	} else {
		fmt.Fprintln(r.out, "No changes detected since last run.")
	}
	fmt.Fprintln(r.out)
}

// changeLine renders one change event. Aggregate directory changes carry a
// trailing hint about what moved.
func changeLine(event snapshot.ChangeEvent) string {
	switch event.Kind {
	case snapshot.DirectoryContentsChanged:
		return fmt.Sprintf("%s: %s (files/folders added/removed)", event.Kind, event.Path)
	case snapshot.DirectoryStructureChanged:
		return fmt.Sprintf("%s: %s (metadata/structure modified)", event.Kind, event.Path)
	default:
		return fmt.Sprintf("%s: %s", event.Kind, event.Path)
	}
}

// Summary is one target's scan outcome for the final table.
type Summary struct {
	Root    string
	Files   int
	Dirs    int
	Changes int
	Elapsed time.Duration
}

// PrintSummary renders the per-target summary table and the total elapsed
// time for the batch.
func (r *Reporter) PrintSummary(rows []Summary, totalElapsed time.Duration) {
	table := tablewriter.NewWriter(r.out)
	table.SetHeader([]string{"Target", "Files", "Folders", "Changes", "Elapsed"})
	table.SetBorder(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, row := range rows {
		table.Append([]string{
			row.Root,
			strconv.Itoa(row.Files),
			strconv.Itoa(row.Dirs),
			strconv.Itoa(row.Changes),
			row.Elapsed.Round(time.Millisecond).String(),
		})
	}

	table.Render()

	fmt.Fprintf(r.out, "Total processing time: %.2f seconds\n", totalElapsed.Seconds())
}

// PrintCacheStats renders the digest cache size after a batch.
func (r *Reporter) PrintCacheStats(entries int) {
	fmt.Fprintf(r.out, "Cache hit rate: %d cached entries\n", entries)
}
