package main

import "github.com/placedir/server/cmd/server/cmd"

func main() {
	cmd.Execute()
}
