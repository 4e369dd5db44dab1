package main

import "github.com/leandrodaf/midiperformer/internal/cli"

func main() {
	cli.Execute()
}
