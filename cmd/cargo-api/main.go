package main

import (
	"context"
	"errors"
)

func main() {
	app := mustBootstrapCargoAPI()
	defer app.Close()

	if err := app.Run(); err != nil && !errors.Is(err, context.Canceled) {
		app.log.Error("cargo-api stopped", "err", err)
	}
}
