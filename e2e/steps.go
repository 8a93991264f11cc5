package e2e

import (
	"github.com/cucumber/godog"

	"doceo/e2e/steps/admin"
	"doceo/e2e/steps/clock"
	"doceo/e2e/steps/common"
	"doceo/e2e/steps/credentials"
	"doceo/e2e/steps/events"
)

// RegisterSteps registers all step definitions against the shared context.
// Each step package declares the slice of the context it needs.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	credentials.RegisterSteps(ctx, tc)
	admin.RegisterSteps(ctx, tc)
	clock.RegisterSteps(ctx, tc)
	events.RegisterSteps(ctx, tc)
}
