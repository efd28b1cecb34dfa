package main

import "legacy-mirror/cmd"

func main() {
	cmd.Execute()
}
