package main

import "tenancy-graphx/cmd"

func main() {
	cmd.Execute()
}
