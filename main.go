package main

import "github.com/Zachkp/devops-journey/cmd"

func main() {
	cmd.Execute()
}
