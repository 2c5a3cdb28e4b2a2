package main

import "github.com/terraconstructs/geoform/cmd/geoformctl/cmd"

func main() {
	cmd.Execute()
}
