package main

import "github.com/pairlens/pairlens/cmd"

func main() {
	cmd.Execute()
}
