package main

import "github.com/LeJamon/goLamportSim/internal/cli"

func main() {
	cli.Execute()
}
