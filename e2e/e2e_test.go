package e2e

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"

	"github.com/cucumber/godog"
	"github.com/cucumber/godog/colors"
)

var opts = godog.Options{
	Output: colors.Colored(os.Stdout),
	Format: "pretty",
	Paths:  []string{"features"},
}

func init() {
	godog.BindCommandLineFlags("godog.", &opts)
}

func TestFeatures(t *testing.T) {
	flag.Parse()
	opts.TestingT = t

	status := godog.TestSuite{
		Name:                "ledger",
		ScenarioInitializer: InitializeScenario,
		Options:             &opts,
	}.Run()
	if status != 0 {
		t.Fatalf("feature suite exited with status %d", status)
	}
}

func InitializeScenario(sc *godog.ScenarioContext) {
	tc := NewTestContext()

	// Reset mutates the shared context in place: the step definitions below
	// hold the same pointer, so a reassignment here would strand them on the
	// previous scenario's state.
	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		return ctx, tc.Reset()
	})

	sc.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if err != nil {
			fmt.Printf("scenario %q failed; last response: %s\n", sc.Name, tc.LastResponseBody)
		}
		return ctx, nil
	})

	RegisterSteps(sc, tc)
}
