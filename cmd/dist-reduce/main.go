package main

import cli "gopkg.in/src-d/go-cli.v0"

var (
	version string
	build   string
)

var app = cli.New("dist-reduce", version, build, "distributed reduction programs on a local or simulated group")

func main() {
	app.RunMain()
}
