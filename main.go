package main

import "github.com/emrlaunch/emrlaunch/cmd"

func main() {
	cmd.Execute()
}
