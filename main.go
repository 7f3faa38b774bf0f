package main

import "symptomwise-backend/cmd"

func main() {
	cmd.Execute()
}
