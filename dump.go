package mealplanner

import (
	"fmt"
	"io"
	"runtime"

	"github.com/davecgh/go-spew/spew"
)

var dumpConfig = spew.ConfigState{
	Indent:                  "  ",
	SortKeys:                true,
	DisableMethods:          true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

// Dump writes a deep rendering of v to w, prefixed with the caller's
// location. Map keys are sorted so two dumps of the same plan diff cleanly.
func Dump(w io.Writer, v ...any) {
	_, file, line, _ := runtime.Caller(1)
	fmt.Fprintf(w, "%s:%d:\n", file, line)
	dumpConfig.Fdump(w, v...)
}
