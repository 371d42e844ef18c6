package main

import "github.com/naka-gawa/github-portfolio/cmd"

func main() {
	cmd.Execute()
}
