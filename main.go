package main

import "github.com/KaramelBytes/predcompare-cli/cmd"

func main() {
	cmd.Execute()
}
