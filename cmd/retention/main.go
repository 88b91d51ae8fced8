// Command retention runs simulated DRAM data-retention sweeps and works
// with the records and results they produce.
package main

func main() {
	Execute()
}
