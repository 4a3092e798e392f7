package main

import (
	"fmt"

	"github.com/mhzipy/mftindex"
)

func search(args ...string) {
	if len(args) != 3 {
		exit("search needs [drive] [snapshot] [query]")
	}
	drive, snapshot, query := args[0], args[1], args[2]

	ix := mftindex.New(drive, snapshot)
	if err := ix.Open(); err != nil {
		fmt.Printf("no usable snapshot (%v), building one now\n", err)
		if _, err := ix.BuildIndex(); err != nil {
			exit("build failed: %v", err)
		}
	}
	defer ix.Close()

	for _, path := range ix.Search(query) {
		fmt.Println(path)
	}
}
