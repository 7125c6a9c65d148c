package main

import "github.com/naka-gawa/agentic-pr-study/cmd"

func main() {
	cmd.Execute()
}
