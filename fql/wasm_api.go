//go:build js && wasm

package fql

import (
	"encoding/base64"
	"fmt"
	"github.com/cottand/fql/frontend/graph"
	"github.com/cottand/fql/frontend/types/wire"
	"syscall/js"
)

// CheckAndShowTypes does a frontend pass of program
// and prints the inferred types of the program's top-level
// declarations, or alternatively displays errors messages if the
// program does not parse or type-check
func CheckAndShowTypes(_ js.Value, args []js.Value) (ret any) {
	defer func() {
		if r := recover(); r != nil {
			ret = "compiler panicked: " + fmt.Sprint(r)
		}
	}()

	settings := graph.DefaultSettings()
	settings.PrettyErrors = true
	exports, err := CheckProgram("program.fql", args[0].String(), settings)
	if err != nil {
		return fmt.Sprintf("the program has the following errors:\n%s", err)
	}
	return DisplayTypes(exports)
}

// EncodeTypes is CheckAndShowTypes for other programs: it returns the exports
// of program in the wire format, base64 encoded.
//
// output: { error: string } | { types: string }
func EncodeTypes(_ js.Value, args []js.Value) (ret any) {
	errorObj := func(err string) any {
		return js.ValueOf(map[string]any{"error": err})
	}
	defer func() {
		if r := recover(); r != nil {
			ret = errorObj("compiler panicked: " + fmt.Sprint(r))
		}
	}()

	exports, err := CheckProgram("program.fql", args[0].String(), graph.DefaultSettings())
	if err != nil {
		return errorObj(err.Error())
	}
	encoded, err := wire.EncodeEnv(Bindings(exports))
	if err != nil {
		return errorObj(fmt.Sprintf("the compiler encountered a failure:\n%s", err))
	}
	return js.ValueOf(map[string]any{"types": base64.StdEncoding.EncodeToString(encoded)})
}
