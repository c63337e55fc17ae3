package main

import "github.com/rbitr/altdocs/cmd/altdocs-server/cmd"

func main() {
	cmd.Execute()
}
