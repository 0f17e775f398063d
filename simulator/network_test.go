package simulator

import "testing"

func TestLinkNetworkSingleMessage(t *testing.T) {
	loop := NewEventLoop()
	network := NewLinkNetwork(3.0, 2.0)
	port1 := NewNode().Port(loop)
	port2 := NewNode().Port(loop)

	loop.Go(func(h *Handle) {
		network.Send(h, &Message{Source: port1, Dest: port2, Message: "hi", Size: 8})
	})
	loop.Go(func(h *Handle) {
		msg, err := port2.Recv(h)
		if err != nil {
			t.Error(err)
		} else if msg.Message != "hi" {
			t.Errorf("unexpected message: %v", msg.Message)
		}
	})

	if err := loop.Run(); err != nil {
		t.Fatal(err)
	}
	if expected := 3.0 + 8.0/2.0; loop.Time() != expected {
		t.Errorf("time should be %f but got %f", expected, loop.Time())
	}
}

// TestLinkNetworkQueueing checks that messages headed to
// one node share its link and arrive in send order.
func TestLinkNetworkQueueing(t *testing.T) {
	loop := NewEventLoop()
	network := NewLinkNetwork(1.0, 4.0)
	root := NewNode().Port(loop)
	senders := []*Port{NewNode().Port(loop), NewNode().Port(loop)}

	loop.Go(func(h *Handle) {
		for i, sender := range senders {
			network.Send(h, &Message{Source: sender, Dest: root, Message: i, Size: 8})
		}
	})
	loop.Go(func(h *Handle) {
		for i := range senders {
			msg, err := root.Recv(h)
			if err != nil {
				t.Error(err)
				return
			}
			if msg.Message != i {
				t.Errorf("message %d: got %v", i, msg.Message)
			}
			if msg.Source != senders[i] {
				t.Errorf("message %d: unexpected source", i)
			}
		}
	})

	if err := loop.Run(); err != nil {
		t.Fatal(err)
	}
	if expected := 2 * (1.0 + 8.0/4.0); loop.Time() != expected {
		t.Errorf("time should be %f but got %f", expected, loop.Time())
	}
}

func TestRandomNetworkDelivers(t *testing.T) {
	loop := NewEventLoop()
	ports := []*Port{NewNode().Port(loop), NewNode().Port(loop)}

	loop.Go(func(h *Handle) {
		RandomNetwork{}.Send(h, &Message{Source: ports[0], Dest: ports[1], Message: 7})
	})
	loop.Go(func(h *Handle) {
		msg, err := ports[1].Recv(h)
		if err != nil {
			t.Error(err)
		} else if msg.Message != 7 {
			t.Errorf("unexpected message: %v", msg.Message)
		}
	})

	if err := loop.Run(); err != nil {
		t.Fatal(err)
	}
	if loop.Time() >= 1 {
		t.Errorf("delay should be below 1 but got %f", loop.Time())
	}
}
