package main

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/mhzipy/mftindex"
)

// printSink prints each batch of changes with a timestamp.
type printSink struct{}

func (printSink) OnChanges(events []mftindex.ChangeEvent) {
	for _, e := range events {
		printTime("%-6s %s (dir=%v)", e.Action, e.Path, e.IsDir)
	}
}

func (printSink) OnReady(ready bool) {
	printTime("index-ready: %v", ready)
}

func printTime(format string, a ...interface{}) {
	fmt.Printf(time.Now().Format("15:04:05.0000")+" "+format+"\n", a...)
}

func watch(args ...string) {
	if len(args) != 2 {
		exit("watch needs [drive] [snapshot]")
	}
	drive, snapshot := args[0], args[1]

	ix := mftindex.New(drive, snapshot, mftindex.WithChangeSink(printSink{}))
	if err := ix.Open(); err != nil {
		fmt.Printf("no usable snapshot (%v), building one now\n", err)
		if _, err := ix.BuildIndex(); err != nil {
			exit("build failed: %v", err)
		}
	}
	defer ix.Close()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	<-c
}
