package main

import (
	"log/slog"
	"os"

	"github.com/osanchezal/inventory-checkout-system/internal/app"
)

func main() {
	err := app.Run()
	if err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}
