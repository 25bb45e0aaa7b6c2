// Package train models a train as an ordered car list with front and rear
// track cursors. The simulation mutates the car list directly on coupling
// and uncoupling and recomputes the cursors afterwards.
package train

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"nyiyui.ca/hato/unten/notify"
	"nyiyui.ca/hato/unten/track"
)

// Car is a loaded rail vehicle.
type Car struct {
	Comment string
	// Length in metres, including couplers.
	Length float64
	Engine bool
	// Flipped is true when the car is mounted back-to-front relative to
	// the train's front-to-rear order.
	Flipped bool
}

// Event is an opaque integer code fired on one car, consumed by an
// external presentation layer. The core assigns no meaning to Code.
type Event struct {
	Train uuid.UUID
	// CarI indexes the car in the train's front-to-rear order at the time
	// of firing.
	CarI int
	Code int
}

func (e Event) String() string {
	return fmt.Sprintf("event %d on car %d of %s", e.Code, e.CarI, e.Train)
}

type Train struct {
	ID      uuid.UUID
	Comment string
	// Cars front to rear. Never empty for a live train.
	Cars []*Car
	// Front and Rear both face the train's forward direction. Moving Rear
	// forward by the train's length reproduces Front.
	Front, Rear track.Traveller
	// Speed in m/s. Positive is forward (towards Front's facing).
	Speed float64
	// TargetSpeed is what the (placeholder) physics integrates towards.
	TargetSpeed float64
	// MaxAccel and MaxBrake in m/s².
	MaxAccel, MaxBrake float64

	// Events receives per-car event codes; nil to discard.
	Events *notify.HubSender[Event]
}

// New builds a train from its car list and front cursor, deriving the rear
// cursor. front must face the train's forward direction.
func New(comment string, cars []*Car, front track.Traveller) *Train {
	t := &Train{
		ID:       uuid.New(),
		Comment:  comment,
		Cars:     cars,
		Front:    front,
		MaxAccel: 0.5,
		MaxBrake: 1.0,
	}
	t.RepositionRear()
	return t
}

// Length is the sum of the car lengths in metres.
func (t *Train) Length() float64 {
	var sum float64
	for _, c := range t.Cars {
		sum += c.Length
	}
	return sum
}

// RepositionRear recomputes the rear cursor from the front cursor and the
// car list. Call after any car-list mutation that kept the front in place.
func (t *Train) RepositionRear() {
	r := t.Front
	r.Move(-t.Length())
	t.Rear = r
}

// RepositionFront recomputes the front cursor from the rear cursor and the
// car list. Call after any car-list mutation that kept the rear in place.
func (t *Train) RepositionFront() {
	f := t.Rear
	f.Move(t.Length())
	t.Front = f
}

// CursorError returns the distance in metres between the front cursor and
// the rear cursor advanced by the train's length. Zero (within floating
// tolerance) on a consistent train.
func (t *Train) CursorError() float64 {
	r := t.Rear
	r.Move(t.Length())
	return math.Sqrt(r.Location().DistanceSq(t.Front.Location()))
}

// Update advances the train's own physics by elapsed seconds and moves
// both cursors. Elapsed zero is the settle tick: nothing moves, but
// near-zero residual speed snaps to exactly zero so derived state has a
// consistent stopped baseline.
func (t *Train) Update(elapsed float64) {
	if elapsed <= 0 {
		if math.Abs(t.Speed) < 1e-3 {
			t.Speed = 0
		}
		return
	}
	if t.Speed < t.TargetSpeed {
		t.Speed = math.Min(t.TargetSpeed, t.Speed+t.MaxAccel*elapsed)
	} else if t.Speed > t.TargetSpeed {
		t.Speed = math.Max(t.TargetSpeed, t.Speed-t.MaxBrake*elapsed)
	}
	if d := t.Speed * elapsed; d != 0 {
		t.Front.Move(d)
		t.Rear.Move(d)
	}
}

// FireEvent emits code on the car at index carI.
func (t *Train) FireEvent(carI, code int) {
	if t.Events == nil {
		return
	}
	t.Events.Send(Event{Train: t.ID, CarI: carI, Code: code})
}

func (t *Train) String() string {
	return fmt.Sprintf("train(%s cars%d v%.2f)", t.Comment, len(t.Cars), t.Speed)
}
