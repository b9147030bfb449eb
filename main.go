package main

import "github.com/ValentinKolb/tsarray/cmd"

func main() {
	cmd.Execute()
}
