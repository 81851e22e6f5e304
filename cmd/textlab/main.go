package main

import "github.com/ravipanchani-tomtom/data-processing-demo/internal/cli"

func main() {
	cli.Execute()
}
