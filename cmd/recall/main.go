// Command recall is the main entry point for the Recall ingestion server.
package main

import "os"

func main() {
	os.Exit(Execute())
}
