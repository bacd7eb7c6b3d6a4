package main

import "github.com/flumeopt/optimizer/cmd/planopt/cmd"

func main() {
	cmd.Execute()
}
