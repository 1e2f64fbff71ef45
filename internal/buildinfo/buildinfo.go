// Package buildinfo exposes version metadata. BuildDate and BuildCommit are
// set at link time with -ldflags "-X".
package buildinfo

import (
	"fmt"
	"io"
)

// Version is the data layer version reported by the facade and written into
// export documents.
var Version = "1.2.0"

var (
	BuildDate   = "N/A"
	BuildCommit = "N/A"
)

// PrintBuildData writes a short build banner to w.
func PrintBuildData(w io.Writer) {
	fmt.Fprintf(w, "Build version: %s\n", Version)
	fmt.Fprintf(w, "Build date: %s\n", BuildDate)
	fmt.Fprintf(w, "Build commit: %s\n", BuildCommit)
}
