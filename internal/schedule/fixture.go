package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// FixtureSource serves canned responses. It backs the demo mode of the web
// server and stands in for the endpoint in tests.
type FixtureSource struct {
	mu        sync.Mutex
	responses map[Direction]Response
	failures  map[Direction]error
	calls     map[Direction]int
}

func NewFixtureSource(responses map[Direction]Response) *FixtureSource {
	fixture := &FixtureSource{
		responses: make(map[Direction]Response, len(responses)),
		failures:  map[Direction]error{},
		calls:     map[Direction]int{},
	}
	for direction, response := range responses {
		fixture.responses[direction] = response
	}
	return fixture
}

func (fixture *FixtureSource) Set(direction Direction, response Response) {
	fixture.mu.Lock()
	defer fixture.mu.Unlock()
	fixture.responses[direction] = response
	delete(fixture.failures, direction)
}

// Fail makes every following fetch for direction return a TransportError
// wrapping err.
func (fixture *FixtureSource) Fail(direction Direction, err error) {
	fixture.mu.Lock()
	defer fixture.mu.Unlock()
	fixture.failures[direction] = err
}

func (fixture *FixtureSource) Calls(direction Direction) int {
	fixture.mu.Lock()
	defer fixture.mu.Unlock()
	return fixture.calls[direction]
}

func (fixture *FixtureSource) FetchSchedule(ctx context.Context, direction Direction) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, &TransportError{Direction: direction, Err: err}
	}

	fixture.mu.Lock()
	defer fixture.mu.Unlock()

	fixture.calls[direction]++
	if err, ok := fixture.failures[direction]; ok {
		return Response{}, &TransportError{Direction: direction, Err: err}
	}

	response, ok := fixture.responses[direction]
	if !ok {
		return Response{Values: []RawSlot{}}, nil
	}

	values := make([]RawSlot, len(response.Values))
	copy(values, response.Values)
	return Response{Values: values}, nil
}

const demoLayout = "2006-01-02T15:04:05"

// DemoResponses builds a plausible day of shuttle departures on day's date.
// Outward trips skip the second via stop on the hour; homeward trips run
// the other way round with a remark on the last bus.
func DemoResponses(day time.Time) map[Direction]Response {
	at := func(hour, minute int) string {
		return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location()).Format(demoLayout)
	}

	outward := make([]RawSlot, 0, 32)
	homeward := make([]RawSlot, 0, 32)

	for hour := 7; hour <= 20; hour++ {
		for _, minute := range []int{0, 30} {
			slot := RawSlot{
				Start: at(hour, minute),
				Via1:  at(hour, minute+10),
				Via2:  at(hour, minute+20),
				Goal:  at(hour, minute+25),
			}
			if minute == 0 {
				slot.Via2 = ""
				slot.Goal = at(hour, minute+22)
			}
			outward = append(outward, slot)

			homeward = append(homeward, RawSlot{
				Start: at(hour, minute+5),
				Via1:  at(hour, minute+10),
				Via2:  at(hour, minute+17),
				Goal:  at(hour, minute+27),
			})
		}
	}

	outward[0].Remarks = "始発便\n研究実験棟は通過します"
	homeward[len(homeward)-1].Remarks = fmt.Sprintf("最終便\n%s発", homeward[len(homeward)-1].Start[11:16])

	return map[Direction]Response{
		Outward:  {Values: outward},
		Homeward: {Values: homeward},
	}
}
