package nwc

import (
	"io"
	"log"
)

var (
	// call SetOutput on InfoLogger to enable info logging
	InfoLogger = log.New(io.Discard, "[go-nwc][info] ", log.LstdFlags)

	// call SetOutput on DebugLogger to enable debug logging
	DebugLogger = log.New(io.Discard, "[go-nwc][debug] ", log.LstdFlags)
)

func debugLogf(str string, args ...any) {
	DebugLogger.Printf(str, args...)
}
