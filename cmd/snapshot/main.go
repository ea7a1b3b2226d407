// snapshot - deterministic snapshot serializer CLI
//
// Usage:
//
//	snapshot dump [--format F] [--ordered] [--name N] [file]  Serialize JSON/YAML/TOML input
//	snapshot blocks <file>                                   List blocks of a snapshot document
//	snapshot show <file> <name>                              Print one block body
//	snapshot version                                         Print version info
//
// Inputs ending in .zst are decompressed first. If no file is given, dump
// reads from stdin. Every flag can also be set through a SNAPSHOT_*
// environment variable (e.g. SNAPSHOT_INDENT, SNAPSHOT_MAX_DEPTH).
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "snapshot: %v\n", err)
		os.Exit(1)
	}
}
