package sim

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"nyiyui.ca/hato/unten/train"
)

// Opaque event codes handed to the presentation layer. The core assigns
// them no meaning beyond "a coupling/uncoupling happened on this car".
const (
	EventCoupled   = 58
	EventUncoupled = 61
)

// reverseCoupleSpeedBound caps reverse speed at the moment of a rear
// coupling, a placeholder until a proper coupled-mass model exists.
const reverseCoupleSpeedBound = 0.25

// captureRadius scales with closing speed so coupling is easy at a crawl
// and effectively disabled while cruising.
func captureRadius(v float64) float64 {
	return math.Max(0, 0.1*math.Abs(v)/5)
}

// checkForCoupling tests the player train's leading endpoint against every
// other train's endpoints. At most one coupling happens per tick: the scan
// breaks immediately after a match, which also keeps the iteration safe
// against the train-set mutation the match performs.
func (s *Simulator) checkForCoupling() {
	p := s.Player
	if p == nil {
		return
	}
	r := captureRadius(p.Speed)
	rSq := r * r
	if p.Speed <= 0 {
		rear := p.Rear.Location()
		for _, o := range s.Trains {
			if o == p {
				continue
			}
			if rear.DistanceSq(o.Front.Location()) <= rSq {
				s.coupleRear(p, o, false)
				return
			}
			if rear.DistanceSq(o.Rear.Location()) <= rSq {
				s.coupleRear(p, o, true)
				return
			}
		}
	} else {
		front := p.Front.Location()
		for _, o := range s.Trains {
			if o == p {
				continue
			}
			if front.DistanceSq(o.Rear.Location()) <= rSq {
				s.coupleFront(p, o, false)
				return
			}
			if front.DistanceSq(o.Front.Location()) <= rSq {
				s.coupleFront(p, o, true)
				return
			}
		}
	}
}

// flipCars reverses order and flips each car's orientation, for couplings
// where the two trains face each other.
func flipCars(cs []*train.Car) []*train.Car {
	out := make([]*train.Car, len(cs))
	for i, c := range cs {
		c.Flipped = !c.Flipped
		out[len(cs)-1-i] = c
	}
	return out
}

// coupleRear splices o's cars onto p's rear. rearToRear is true when p's
// rear endpoint met o's rear endpoint.
func (s *Simulator) coupleRear(p, o *train.Train, rearToRear bool) {
	if p.Speed < -reverseCoupleSpeedBound {
		p.Speed = -reverseCoupleSpeedBound
	}
	cs := o.Cars
	if rearToRear {
		cs = flipCars(cs)
	}
	p.Cars = append(p.Cars, cs...)
	s.removeTrain(o)
	p.RepositionRear()
	p.FireEvent(len(p.Cars)-1, EventCoupled)
	if s.Metrics != nil {
		s.Metrics.Couplings.Inc()
	}
	zap.S().Infow("coupled",
		"into", p.Comment,
		"absorbed", o.Comment,
		"rearToRear", rearToRear,
		"cars", len(p.Cars))
}

// coupleFront splices o's cars onto p's front. frontToFront is true when
// p's front endpoint met o's front endpoint.
func (s *Simulator) coupleFront(p, o *train.Train, frontToFront bool) {
	cs := o.Cars
	if frontToFront {
		cs = flipCars(cs)
	}
	p.Cars = append(slices.Clone(cs), p.Cars...)
	s.removeTrain(o)
	p.RepositionFront()
	p.FireEvent(0, EventCoupled)
	if s.Metrics != nil {
		s.Metrics.Couplings.Inc()
	}
	zap.S().Infow("coupled",
		"into", p.Comment,
		"absorbed", o.Comment,
		"frontToFront", frontToFront,
		"cars", len(p.Cars))
}

// UncoupleBehind splits t immediately after c: every car behind c moves,
// in order, into a new train which joins the active set. Uncoupling behind
// the last car is a no-op returning nil. c not being a member of t is a
// programming error.
func (s *Simulator) UncoupleBehind(t *train.Train, c *train.Car) *train.Train {
	i := slices.Index(t.Cars, c)
	if i == -1 {
		panic(fmt.Sprintf("UncoupleBehind: car %q not in train %s", c.Comment, t.ID))
	}
	if i == len(t.Cars)-1 {
		return nil
	}
	moved := slices.Clone(t.Cars[i+1:])
	t.Cars = t.Cars[: i+1 : i+1]

	t2 := &train.Train{
		ID:       uuid.New(),
		Comment:  fmt.Sprintf("%s (uncoupled)", t.Comment),
		Cars:     moved,
		Rear:     t.Rear,
		MaxAccel: t.MaxAccel,
		MaxBrake: t.MaxBrake,
	}
	t2.RepositionFront()
	t.RepositionRear()

	// settle both halves to a consistent stopped baseline
	t.Update(0)
	t2.Update(0)

	s.AddTrain(t2)
	t.FireEvent(i, EventUncoupled)
	if s.Metrics != nil {
		s.Metrics.Uncouplings.Inc()
	}
	zap.S().Infow("uncoupled",
		"train", t.Comment,
		"behindCar", i,
		"kept", len(t.Cars),
		"moved", len(moved))
	return t2
}
