package mftindex

import (
	"fmt"
	"os"
	"time"
)

// debug gates low-level wire tracing of IOCTL buffers.
var debug = os.Getenv("MFTINDEX_DEBUG") != ""

func traceMsg(format string, a ...interface{}) {
	if !debug {
		return
	}
	fmt.Fprintf(os.Stderr, "MFTINDEX_DEBUG: %s  "+format+"\n",
		append([]interface{}{time.Now().Format("15:04:05.000000000")}, a...)...)
}
