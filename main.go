/*
Copyright © 2025 Ambor <saltbo@foxmail.com>
*/
package main

import "github.com/eslsoft/dsasheet/cmd"

func main() {
	cmd.Execute()
}
