package main

import "principal-sync/cmd"

func main() {
	cmd.Execute()
}
