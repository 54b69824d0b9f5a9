package main

import "github.com/tripnest/ms-go-session/cmd"

func main() {
	cmd.Execute()
}
