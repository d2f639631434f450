package main

import "tlsvhost/internal/cmd"

func main() {
	cmd.Execute()
}
