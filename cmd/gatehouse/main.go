package main

import "github.com/gskelton/gatehouse/cmd/gatehouse/cmd"

func main() {
	cmd.Execute()
}
