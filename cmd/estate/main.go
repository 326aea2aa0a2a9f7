package main

import "riyadhestate/server/internal/cli"

func main() {
	cli.Execute()
}
