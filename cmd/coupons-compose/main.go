/*
Coupons Compose
Copyright 2024 The Coupons Authors
*/
package main

import (
	"os"

	"github.com/coupons/coupons-compose/internal/command"
)

func main() {
	os.Exit(command.Execute())
}
