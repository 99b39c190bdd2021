package main

import (
	"github.com/heritage-platform/commerce/internal/app"
	"github.com/heritage-platform/commerce/internal/config"
)

func main() {
	config.MustInit()
	app.MustNewApp().Run()
}
