package main

import "github.com/nagyist/d2/cmd/d2/cmd"

func main() {
	cmd.Execute()
}
