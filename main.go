package main

import "github.com/theirongolddev/orline/cmd"

func main() {
	cmd.Execute()
}
