package main

import "github.com/codeguardian-ai/codeguardian/cmd"

func main() {
	cmd.Execute()
}
