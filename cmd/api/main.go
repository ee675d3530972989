// Command api runs the storefront HTTP service without the CLI wrapper,
// for container images that only serve traffic.
package main

import (
	"go.uber.org/fx"

	"github.com/greencrop/storefront/internal/app"
)

func main() {
	fx.New(app.HTTP, app.Logging).Run()
}
