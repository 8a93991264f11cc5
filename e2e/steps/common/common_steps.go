package common

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext is the slice of the suite context these steps need.
type TestContext interface {
	GET(path string, headers map[string]string) error
	GetResponseField(field string) (any, error)
	ResponseContains(text string) bool
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
}

// RegisterSteps registers the request and assertion steps shared across
// features.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^the credential ledger is running$`, steps.ledgerIsRunning)

	ctx.Step(`^I GET "([^"]*)" without authorization$`, steps.getWithoutAuth)
	ctx.Step(`^I GET "([^"]*)" with bearer token "([^"]*)"$`, steps.getWithBearerToken)

	ctx.Step(`^the response status should be (\d+)$`, steps.responseStatusShouldBe)
	ctx.Step(`^the response should contain "([^"]*)"$`, steps.responseShouldContain)
	ctx.Step(`^the response field "([^"]*)" should equal "([^"]*)"$`, steps.responseFieldShouldEqual)
	ctx.Step(`^the response field "([^"]*)" should contain "([^"]*)"$`, steps.responseFieldShouldContain)
}

type commonSteps struct {
	tc TestContext
}

// ledgerIsRunning probes the health endpoint so a missing or broken server
// fails the scenario at the first step instead of somewhere mid-flow.
func (s *commonSteps) ledgerIsRunning(ctx context.Context) error {
	if err := s.tc.GET("/health", nil); err != nil {
		return fmt.Errorf("ledger is not reachable: %w", err)
	}
	if status := s.tc.GetLastResponseStatus(); status != 200 {
		return fmt.Errorf("ledger health returned %d", status)
	}
	return nil
}

func (s *commonSteps) getWithoutAuth(ctx context.Context, path string) error {
	return s.tc.GET(path, nil)
}

func (s *commonSteps) getWithBearerToken(ctx context.Context, path, token string) error {
	return s.tc.GET(path, map[string]string{"Authorization": "Bearer " + token})
}

func (s *commonSteps) responseStatusShouldBe(ctx context.Context, want int) error {
	if got := s.tc.GetLastResponseStatus(); got != want {
		return fmt.Errorf("expected status %d but got %d\nResponse: %s", want, got, s.tc.GetLastResponseBody())
	}
	return nil
}

func (s *commonSteps) responseShouldContain(ctx context.Context, text string) error {
	if !s.tc.ResponseContains(text) {
		return fmt.Errorf("response does not contain %q\nResponse: %s", text, s.tc.GetLastResponseBody())
	}
	return nil
}

// fieldValue flattens a response field for comparison; numbers render the
// way Gherkin tables write them.
func (s *commonSteps) fieldValue(field string) (string, error) {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		return "", err
	}
	return fmt.Sprint(v), nil
}

func (s *commonSteps) responseFieldShouldEqual(ctx context.Context, field, want string) error {
	got, err := s.fieldValue(field)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("field %s: expected %s but got %s", field, want, got)
	}
	return nil
}

func (s *commonSteps) responseFieldShouldContain(ctx context.Context, field, want string) error {
	got, err := s.fieldValue(field)
	if err != nil {
		return err
	}
	if !strings.Contains(got, want) {
		return fmt.Errorf("field %s: expected to contain %s but got %s", field, want, got)
	}
	return nil
}
