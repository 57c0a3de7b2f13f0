// Command inventar runs the household inventory engine: the HTTP API server
// plus maintenance commands for the database.
package main

import "os"

func main() {
	root, a := newRootCmd()
	err := root.Execute()
	a.close()
	if err != nil {
		os.Exit(1)
	}
}
