package main

import "github.com/va6996/querytools/cmd"

func main() {
	cmd.Execute()
}
