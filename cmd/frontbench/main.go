// Command frontbench records synthetic frames through a frontend Context
// and replays them into a backend, reporting arena and replay statistics.
package main

func main() {
	execute()
}
