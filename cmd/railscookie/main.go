// Command railscookie reads and writes Rails signed and encrypted cookies
// from the shell, and can serve the same operations over HTTP.
//
// Usage:
//
//	railscookie [flags] decrypt <value|->
//	railscookie [flags] verify  <value|->
//	railscookie [flags] encrypt <json|->
//	railscookie [flags] sign    <json|->
//	railscookie [flags] cookies <header|->
//	railscookie [flags] serve
//
// The secret and protocol settings come from RAILS_SECRET_KEY_BASE and the
// other RAILS_* and COOKIE_* variables, optionally read from -env-file.
package main

import (
	"context"
	"os"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
