//go:build js && wasm

package main

import (
	"syscall/js"

	"github.com/cottand/fql/fql"
)

func main() {
	js.Global().Set("CheckAndShowTypes", js.FuncOf(fql.CheckAndShowTypes))
	js.Global().Set("EncodeTypes", js.FuncOf(fql.EncodeTypes))

	// wait indefinitely so that Go does not terminate execution
	// and the function remains available
	<-make(chan struct{})
}
