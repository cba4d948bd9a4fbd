package main

import "github.com/example/lexitutor/cmd"

func main() {
	cmd.Execute()
}
