// Package main is the entry point for the ga4ch application
package main

import "github.com/ethpandaops/ga4ch/cmd"

func main() {
	cmd.Execute()
}
