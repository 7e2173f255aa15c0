package main

import "github.com/vietddude/modswap/internal/cli"

func main() {
	cli.Execute()
}
