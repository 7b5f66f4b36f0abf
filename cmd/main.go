package main

import (
	"github.com/inkwear/storefront/internal/app"
	"github.com/inkwear/storefront/internal/config"
)

func main() {
	config.MustInit()
	app.MustNewApp().Run()
}
