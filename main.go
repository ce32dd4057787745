package main

import "github.com/xinfuwcx/DeepCAD-sub015/cmd"

func main() {
	cmd.Execute()
}
