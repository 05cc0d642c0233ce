package main

import (
	"go.uber.org/fx"

	"github.com/kirana-labs/kirana/internal/app"
)

func main() {
	fx.New(app.Module).Run()
}
