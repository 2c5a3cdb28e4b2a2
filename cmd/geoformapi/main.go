package main

import "github.com/terraconstructs/geoform/cmd/geoformapi/cmd"

func main() {
	cmd.Execute()
}
