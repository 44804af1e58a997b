package main

import "github.com/jmehdipour/api-portal/cmd"

func main() {
	cmd.Execute()
}
