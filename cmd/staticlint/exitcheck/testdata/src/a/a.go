package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("starting")
	defer func() {
		os.Exit(0)
	}()
	os.Exit(1) // want `do not call os.Exit in main directly, return an exit code instead`
}

func helper() {
	os.Exit(2)
}
