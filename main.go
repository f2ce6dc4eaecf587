// Command pagesnap captures a web page and its same-origin assets into a zip snapshot.
package main

import "github.com/gaurav-prasanna/pagesnap/cmd"

func main() {
	cmd.Execute()
}
