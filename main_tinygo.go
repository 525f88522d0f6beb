//go:build tinygo && (rp2040 || rp2350)

package main

import (
	"uartecho/app"
	"uartecho/hal"
)

func main() {
	app.Run(hal.New())
}
