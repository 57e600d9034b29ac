package main

import "github.com/luapp-lang/luapp/cmd/luapp/cmd"

func main() {
	cmd.Execute()
}
