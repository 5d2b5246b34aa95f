// Command flux drives flux stores from the terminal, over HTTP and over MCP.
package main

func main() {
	Execute()
}
