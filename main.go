package main

import "github.com/frahmantamala/mission-management/cmd"

func main() {
	cmd.Execute()
}
