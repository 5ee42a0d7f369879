// Copyright IBM Corp. 2023, 2025

package main

import "github.com/hashicorp/go-unbundle/cmd"

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// main start go-unbundle cli `unbundle`
func main() {
	cmd.Run(version, commit, date)
}
