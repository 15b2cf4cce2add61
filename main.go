package main

import "github.com/nextlevelbuilder/followbot/cmd"

func main() {
	cmd.Execute()
}
