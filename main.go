package main

import "github.com/jmehdipour/credit-registry/cmd"

func main() {
	cmd.Execute()
}
