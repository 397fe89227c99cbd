// Package main provides the entry point for the piforge CLI.
package main

import "os"

func main() {
	os.Exit(Execute())
}
