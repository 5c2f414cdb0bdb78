package main

import "github.com/prashant564/Courses24-API/cmd"

func main() {
	cmd.Execute()
}
