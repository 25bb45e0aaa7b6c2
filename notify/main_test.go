package notify

import (
	"testing"
)

func TestHubFanOut(t *testing.T) {
	s, h := NewHub[int]("test")
	a := make(chan int, 4)
	b := make(chan int, 4)
	h.Subscribe("a", a)
	h.Subscribe("b", b)
	s.Send(7)
	s.Send(8)
	for _, ch := range []chan int{a, b} {
		if got := <-ch; got != 7 {
			t.Errorf("got %d, want 7", got)
		}
		if got := <-ch; got != 8 {
			t.Errorf("got %d, want 8", got)
		}
	}
	h.Unsubscribe(b)
	s.Send(9)
	if got := <-a; got != 9 {
		t.Errorf("got %d, want 9", got)
	}
	select {
	case v := <-b:
		t.Errorf("unsubscribed channel received %d", v)
	default:
	}
}

func TestHubDropsWhenFull(t *testing.T) {
	s, h := NewHub[int]("test")
	c := make(chan int, 1)
	h.Subscribe("slow", c)
	s.Send(1)
	s.Send(2) // dropped, must not block
	if got := <-c; got != 1 {
		t.Errorf("got %d, want 1", got)
	}
	select {
	case v := <-c:
		t.Errorf("expected drop, got %d", v)
	default:
	}
}
