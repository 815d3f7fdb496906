// Command monitor-switcher follows a USB KM switch between two machines and
// moves a shared monitor to the active machine's input over DDC/CI.
package main

import "github.com/oshokin/monitor-switcher/cmd/monitor-switcher/cmd"

func main() {
	cmd.Execute()
}
