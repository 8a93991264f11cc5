package admin

import (
	"context"

	"github.com/cucumber/godog"
)

// TestContext is the slice of the suite context these steps need.
type TestContext interface {
	PostAs(principal, path string, body any) error
	PutAs(principal, path string, body any) error
	DeleteAs(principal, path string) error
	GetAs(principal, path string) error
}

// RegisterSteps registers the ledger administration steps: the verifier
// roster and the configuration switches. Authorization is asserted by the
// features, so every step simply acts as the named principal and lets the
// server decide.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &adminSteps{tc: tc}

	ctx.Step(`^"([^"]*)" adds "([^"]*)" as a verifier$`, steps.addVerifier)
	ctx.Step(`^"([^"]*)" removes "([^"]*)" as a verifier$`, steps.removeVerifier)
	ctx.Step(`^"([^"]*)" checks whether "([^"]*)" is a verifier$`, steps.checkVerifier)

	ctx.Step(`^"([^"]*)" pauses the ledger$`, steps.pauseLedger)
	ctx.Step(`^"([^"]*)" unpauses the ledger$`, steps.unpauseLedger)
	ctx.Step(`^"([^"]*)" sets the storage fee to (\d+)$`, steps.setStorageFee)
	ctx.Step(`^"([^"]*)" sets the document cap to (\d+)$`, steps.setDocumentCap)
	ctx.Step(`^"([^"]*)" reads the ledger configuration$`, steps.readConfiguration)
}

type adminSteps struct {
	tc TestContext
}

func (s *adminSteps) addVerifier(ctx context.Context, caller, principal string) error {
	return s.tc.PostAs(caller, "/v1/admin/verifiers", map[string]any{
		"principal": principal,
	})
}

func (s *adminSteps) removeVerifier(ctx context.Context, caller, principal string) error {
	return s.tc.DeleteAs(caller, "/v1/admin/verifiers/"+principal)
}

func (s *adminSteps) checkVerifier(ctx context.Context, caller, principal string) error {
	return s.tc.GetAs(caller, "/v1/verifiers/"+principal)
}

func (s *adminSteps) pauseLedger(ctx context.Context, caller string) error {
	return s.setPaused(caller, true)
}

func (s *adminSteps) unpauseLedger(ctx context.Context, caller string) error {
	return s.setPaused(caller, false)
}

func (s *adminSteps) setPaused(caller string, paused bool) error {
	return s.tc.PutAs(caller, "/v1/admin/paused", map[string]any{
		"paused": paused,
	})
}

func (s *adminSteps) setStorageFee(ctx context.Context, caller string, fee int) error {
	return s.tc.PutAs(caller, "/v1/admin/storage-fee", map[string]any{
		"fee": fee,
	})
}

func (s *adminSteps) setDocumentCap(ctx context.Context, caller string, limit int) error {
	return s.tc.PutAs(caller, "/v1/admin/max-documents", map[string]any{
		"max_documents": limit,
	})
}

func (s *adminSteps) readConfiguration(ctx context.Context, caller string) error {
	return s.tc.GetAs(caller, "/v1/config")
}
