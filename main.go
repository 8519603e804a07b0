package main

import "github.com/theirongolddev/ngodash/cmd"

func main() {
	cmd.Execute()
}
