package credentials

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cucumber/godog"

	"doceo/pkg/testutil"
)

// TestContext is the slice of the suite context these steps need.
type TestContext interface {
	PostAs(principal, path string, body any) error
	GetAs(principal, path string) error
	CreditBalance(principal string, amount uint64) error
	Balance(principal string) (uint64, error)
	GetResponseField(field string) (any, error)
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
}

// RegisterSteps registers the credential lifecycle steps: storing, verifying,
// renewing, and the read surface, plus balance seeding for the fee flow.
//
// Documents are addressed by a two-hex-digit seed; the full 64-character
// hash is that byte repeated, so features stay readable while the wire
// carries real hashes.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &credentialSteps{tc: tc}

	ctx.Step(`^tutor "([^"]*)" has a balance of (\d+)$`, steps.seedBalance)
	ctx.Step(`^tutor "([^"]*)" should have a balance of (\d+)$`, steps.balanceShouldBe)

	ctx.Step(`^"([^"]*)" stores the document seeded "([0-9a-f]{2})" titled "([^"]*)"$`, steps.storeDocument)
	ctx.Step(`^"([^"]*)" stores a document with raw hash "([^"]*)" titled "([^"]*)"$`, steps.storeDocumentRawHash)
	ctx.Step(`^"([^"]*)" verifies the document seeded "([0-9a-f]{2})"$`, steps.verifyDocument)
	ctx.Step(`^"([^"]*)" renews the document seeded "([0-9a-f]{2})"$`, steps.renewDocument)
	ctx.Step(`^"([^"]*)" reads the document seeded "([0-9a-f]{2})"$`, steps.readDocument)
	ctx.Step(`^"([^"]*)" checks the status of the document seeded "([0-9a-f]{2})"$`, steps.checkStatus)

	ctx.Step(`^the credential count for "([^"]*)" should be (\d+)$`, steps.credentialCountShouldBe)
	ctx.Step(`^the document seeded "([0-9a-f]{2})" should be verified$`, steps.documentShouldBeVerified)
}

type credentialSteps struct {
	tc TestContext
}

func seededHash(seed string) (string, error) {
	b, err := strconv.ParseUint(seed, 16, 8)
	if err != nil {
		return "", fmt.Errorf("invalid hash seed %q: %w", seed, err)
	}
	return testutil.HexHash(byte(b)), nil
}

func (s *credentialSteps) seedBalance(ctx context.Context, principal string, amount int) error {
	return s.tc.CreditBalance(principal, uint64(amount))
}

func (s *credentialSteps) balanceShouldBe(ctx context.Context, principal string, expected int) error {
	balance, err := s.tc.Balance(principal)
	if err != nil {
		return err
	}
	if balance != uint64(expected) {
		return fmt.Errorf("balance of %s: expected %d but got %d", principal, expected, balance)
	}
	return nil
}

func (s *credentialSteps) storeDocument(ctx context.Context, principal, seed, title string) error {
	hash, err := seededHash(seed)
	if err != nil {
		return err
	}
	return s.storeDocumentRawHash(ctx, principal, hash, title)
}

func (s *credentialSteps) storeDocumentRawHash(ctx context.Context, principal, hash, title string) error {
	body := map[string]any{
		"hash":  hash,
		"title": title,
	}
	return s.tc.PostAs(principal, "/v1/credentials", body)
}

func (s *credentialSteps) verifyDocument(ctx context.Context, principal, seed string) error {
	hash, err := seededHash(seed)
	if err != nil {
		return err
	}
	return s.tc.PostAs(principal, "/v1/credentials/"+hash+"/verify", nil)
}

func (s *credentialSteps) renewDocument(ctx context.Context, principal, seed string) error {
	hash, err := seededHash(seed)
	if err != nil {
		return err
	}
	return s.tc.PostAs(principal, "/v1/credentials/"+hash+"/renew", nil)
}

func (s *credentialSteps) readDocument(ctx context.Context, principal, seed string) error {
	hash, err := seededHash(seed)
	if err != nil {
		return err
	}
	return s.tc.GetAs(principal, "/v1/credentials/"+hash)
}

func (s *credentialSteps) checkStatus(ctx context.Context, principal, seed string) error {
	hash, err := seededHash(seed)
	if err != nil {
		return err
	}
	return s.tc.GetAs(principal, "/v1/credentials/"+hash+"/status")
}

func (s *credentialSteps) credentialCountShouldBe(ctx context.Context, principal string, expected int) error {
	if err := s.tc.GetAs(principal, "/v1/tutors/"+principal+"/credential-count"); err != nil {
		return err
	}
	if status := s.tc.GetLastResponseStatus(); status != 200 {
		return fmt.Errorf("credential count read returned %d: %s", status, s.tc.GetLastResponseBody())
	}
	count, err := s.tc.GetResponseField("count")
	if err != nil {
		return err
	}
	if fmt.Sprint(count) != strconv.Itoa(expected) {
		return fmt.Errorf("credential count for %s: expected %d but got %v", principal, expected, count)
	}
	return nil
}

func (s *credentialSteps) documentShouldBeVerified(ctx context.Context, seed string) error {
	if err := s.checkStatus(ctx, "e2e-reader", seed); err != nil {
		return err
	}
	if status := s.tc.GetLastResponseStatus(); status != 200 {
		return fmt.Errorf("status read returned %d: %s", status, s.tc.GetLastResponseBody())
	}
	verified, err := s.tc.GetResponseField("verified")
	if err != nil {
		return err
	}
	if fmt.Sprint(verified) != "true" {
		return fmt.Errorf("document %s is not verified: %s", seed, s.tc.GetLastResponseBody())
	}
	return nil
}
