package main

import "github.com/LENAX/grocery-core/pkg/cli/cmd"

func main() {
	cmd.Execute()
}
