package main

import "github.com/jmcleod/deskhand/cmd/deskhand/cmd"

func main() {
	cmd.Execute()
}
