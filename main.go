package main

import "github.com/notargets/simread/cmd"

func main() {
	cmd.Execute()
}
