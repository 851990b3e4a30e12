// cmd/taskwatch/main.go
package main

func main() {
	Execute()
}
