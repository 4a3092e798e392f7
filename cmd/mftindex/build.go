package main

import (
	"fmt"
	"time"

	"github.com/mhzipy/mftindex"
)

func build(args ...string) {
	if len(args) != 2 {
		exit("build needs [drive] [snapshot]")
	}
	drive, snapshot := args[0], args[1]

	start := time.Now()
	ix := mftindex.New(drive, snapshot)
	count, err := ix.BuildIndex()
	if err != nil {
		exit("build failed: %v", err)
	}
	defer ix.Close()

	fmt.Printf("indexed %d entries from %s in %s\n", count, drive, time.Since(start).Round(time.Millisecond))
}
