package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext is the slice of the suite context these steps need.
type TestContext interface {
	GET(path string, headers map[string]string) error
	GetInternal(path string) error
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
}

// RegisterSteps registers the event log steps. The log is the ledger's
// sibling-facing contract, so the assertions mirror what a consumer relies
// on: ordering, gapless identifiers, and stable type names.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &eventSteps{tc: tc}

	ctx.Step(`^a sibling service lists events after id (\d+)$`, steps.listEventsAfter)
	ctx.Step(`^a sibling service lists events with service key "([^"]*)"$`, steps.listEventsWithKey)

	ctx.Step(`^the event log should contain (\d+) events?$`, steps.logShouldContain)
	ctx.Step(`^event (\d+) should have type "([^"]*)"$`, steps.eventShouldHaveType)
	ctx.Step(`^the event ids should be gapless from (\d+)$`, steps.idsShouldBeGaplessFrom)
}

type eventSteps struct {
	tc TestContext
}

type eventList struct {
	Events []struct {
		ID   uint64 `json:"id"`
		Type string `json:"type"`
		Tick uint64 `json:"tick"`
	} `json:"events"`
}

func (s *eventSteps) listEventsAfter(ctx context.Context, afterID int) error {
	return s.tc.GetInternal(fmt.Sprintf("/internal/events?after_id=%d", afterID))
}

func (s *eventSteps) listEventsWithKey(ctx context.Context, key string) error {
	return s.tc.GET("/internal/events", map[string]string{
		"X-Service-Key":  key,
		"X-Service-Name": "e2e-suite",
	})
}

func (s *eventSteps) logShouldContain(ctx context.Context, expected int) error {
	list, err := s.lastList()
	if err != nil {
		return err
	}
	if len(list.Events) != expected {
		return fmt.Errorf("expected %d events but got %d: %s", expected, len(list.Events), s.tc.GetLastResponseBody())
	}
	return nil
}

// eventShouldHaveType addresses events by position in the returned page,
// one-based, not by their log id.
func (s *eventSteps) eventShouldHaveType(ctx context.Context, position int, eventType string) error {
	list, err := s.lastList()
	if err != nil {
		return err
	}
	if position < 1 || position > len(list.Events) {
		return fmt.Errorf("event %d out of range: the page has %d events", position, len(list.Events))
	}
	if got := list.Events[position-1].Type; got != eventType {
		return fmt.Errorf("event %d: expected type %q but got %q", position, eventType, got)
	}
	return nil
}

func (s *eventSteps) idsShouldBeGaplessFrom(ctx context.Context, start int) error {
	list, err := s.lastList()
	if err != nil {
		return err
	}
	want := uint64(start)
	for i, event := range list.Events {
		if event.ID != want {
			return fmt.Errorf("event at position %d: expected id %d but got %d", i+1, want, event.ID)
		}
		want++
	}
	return nil
}

func (s *eventSteps) lastList() (*eventList, error) {
	if status := s.tc.GetLastResponseStatus(); status != 200 {
		return nil, fmt.Errorf("event listing returned %d: %s", status, s.tc.GetLastResponseBody())
	}
	var list eventList
	if err := json.Unmarshal(s.tc.GetLastResponseBody(), &list); err != nil {
		return nil, fmt.Errorf("failed to parse event list: %w", err)
	}
	return &list, nil
}
