package main

import "github.com/shakfu/makefilegen/cmd"

func main() {
	cmd.Execute()
}
