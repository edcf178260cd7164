package main

import "os"

func main() {
	newServer(os.Stdout).run(os.Stdin)
}
