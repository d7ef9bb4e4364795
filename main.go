package main

import "github.com/akila/convert-api/cmd"

func main() {
	cmd.Execute()
}
