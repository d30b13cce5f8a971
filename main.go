package main

import "github.com/mselser95/pmxt-go/cmd"

func main() {
	cmd.Execute()
}
