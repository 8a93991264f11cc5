package clock

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/cucumber/godog"
)

// TestContext is the slice of the suite context these steps need.
type TestContext interface {
	GetInternal(path string) error
	PostInternal(path string, body any) error
	GetResponseField(field string) (any, error)
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
}

// RegisterSteps registers the manual clock steps. Advancing the clock is how
// scenarios cross expiry windows without waiting; the routes sit behind the
// service-key API, mirroring how a scheduler sibling would drive time.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &clockSteps{tc: tc}

	ctx.Step(`^the clock advances by (\d+) ticks?$`, steps.advanceClock)
	ctx.Step(`^a sibling service reads the clock$`, steps.readClock)
	ctx.Step(`^I remember the clock tick$`, steps.rememberTick)
	ctx.Step(`^the clock tick should have grown by (\d+)$`, steps.tickShouldHaveGrownBy)
	ctx.Step(`^the response field "([^"]*)" should be the remembered tick plus (\d+)$`, steps.fieldShouldBeRememberedTickPlus)
}

type clockSteps struct {
	tc         TestContext
	remembered uint64
}

// advanceClock is a Given in most scenarios, so it fails loudly instead of
// leaving the clock where it was.
func (s *clockSteps) advanceClock(ctx context.Context, ticks int) error {
	if err := s.tc.PostInternal("/internal/clock/advance", map[string]any{
		"ticks": ticks,
	}); err != nil {
		return err
	}
	if status := s.tc.GetLastResponseStatus(); status != 200 {
		return fmt.Errorf("clock advance returned %d: %s", status, s.tc.GetLastResponseBody())
	}
	return nil
}

func (s *clockSteps) readClock(ctx context.Context) error {
	return s.tc.GetInternal("/internal/clock")
}

func (s *clockSteps) rememberTick(ctx context.Context) error {
	if err := s.tc.GetInternal("/internal/clock"); err != nil {
		return err
	}
	tick, err := s.currentTick()
	if err != nil {
		return err
	}
	s.remembered = tick
	return nil
}

func (s *clockSteps) tickShouldHaveGrownBy(ctx context.Context, delta int) error {
	tick, err := s.currentTick()
	if err != nil {
		return err
	}
	want := s.remembered + uint64(delta)
	if tick != want {
		return fmt.Errorf("expected tick %d but got %d", want, tick)
	}
	return nil
}

func (s *clockSteps) fieldShouldBeRememberedTickPlus(ctx context.Context, field string, delta int) error {
	value, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	got, err := asUint64(value)
	if err != nil {
		return fmt.Errorf("field %s: %w", field, err)
	}
	want := s.remembered + uint64(delta)
	if got != want {
		return fmt.Errorf("field %s: expected %d but got %d", field, want, got)
	}
	return nil
}

func (s *clockSteps) currentTick() (uint64, error) {
	value, err := s.tc.GetResponseField("tick")
	if err != nil {
		return 0, err
	}
	return asUint64(value)
}

func asUint64(value any) (uint64, error) {
	number, ok := value.(json.Number)
	if !ok {
		return 0, fmt.Errorf("expected a number but got %T", value)
	}
	return strconv.ParseUint(number.String(), 10, 64)
}
