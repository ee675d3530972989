package app

import (
	"testing"

	"go.uber.org/fx"
)

func TestGraphsResolve(t *testing.T) {
	for name, opts := range map[string]fx.Option{"http": fx.Options(HTTP, Logging), "worker": Worker} {
		t.Run(name, func(t *testing.T) {
			if err := fx.ValidateApp(opts); err != nil {
				t.Fatalf("%s graph: %v", name, err)
			}
		})
	}
}
