package main

import "github.com/FooFooDamon/kmodflags/cmd"

func main() {
	cmd.Execute()
}
