// Public domain.

package main

import "github.com/soniakeys/wtheta/internal/wprog"

func main() {
	wprog.Main()
}
