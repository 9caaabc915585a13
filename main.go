package main

import "github.com/mj1618/browser-host/cmd"

func main() {
	cmd.Execute()
}
