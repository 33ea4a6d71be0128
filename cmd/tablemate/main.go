package main

import "github.com/example/tablemate/cmd"

func main() {
	cmd.Execute()
}
