package main

import "github.com/rclobus/libxmlb/cmd"

func main() {
	cmd.Execute()
}
