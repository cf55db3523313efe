package main

import "github.com/eddielth/fire-alarm/cmd"

func main() {
	cmd.Execute()
}
