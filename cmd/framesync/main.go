// Command framesync hosts a frame loop with a demo workload.
package main

import "github.com/sarchlab/framesync/cmd"

func main() {
	cmd.Execute()
}
