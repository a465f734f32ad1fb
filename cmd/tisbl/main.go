package main

import "github.com/meshtools/go-tisbl/cmd/tisbl/cmd"

func main() {
	cmd.Execute()
}
