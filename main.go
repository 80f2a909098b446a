package main

import "github.com/longkey1/chatconsole/cmd"

func main() {
	cmd.Execute()
}
