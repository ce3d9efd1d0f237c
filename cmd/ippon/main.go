package main

import "github.com/guedou/ippon/internal/cli"

func main() {
	cli.Execute()
}
