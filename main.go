package main

import "github.com/aliyuchatgptt/falgates/cmd"

func main() {
	cmd.Execute()
}
