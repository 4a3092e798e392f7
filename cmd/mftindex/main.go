// Command mftindex is an example and debugging tool for the mftindex
// library: build a volume's name index, search it, or watch its change
// stream from the command line.
package main

import (
	"fmt"
	"os"
	"path/filepath"
)

var usage = `
mftindex builds and queries a volume-wide NTFS file-name index. This
command serves as an example and debugging tool.

Commands:

    build  [drive] [snapshot]           Enumerate the MFT and write a snapshot.
    search [drive] [snapshot] [query]   Load (or build) the index, then search.
    watch  [drive] [snapshot]           Load the index and print the live change stream.
`[1:]

func exit(format string, a ...interface{}) {
	fmt.Fprintf(os.Stderr, filepath.Base(os.Args[0])+": "+format+"\n", a...)
	fmt.Print("\n" + usage)
	os.Exit(1)
}

func help() {
	fmt.Printf("%s [command] [arguments]\n\n", filepath.Base(os.Args[0]))
	fmt.Print(usage)
	os.Exit(0)
}

func main() {
	if len(os.Args) == 1 {
		help()
	}
	for _, f := range os.Args[1:] {
		switch f {
		case "help", "-h", "-help", "--help":
			help()
		}
	}

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	default:
		exit("unknown command: %q", cmd)
	case "build":
		build(args...)
	case "search":
		search(args...)
	case "watch":
		watch(args...)
	}
}
