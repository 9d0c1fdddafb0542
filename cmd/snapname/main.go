package main

import "snapname/cmd/snapname/cmd"

func main() {
	cmd.Execute()
}
