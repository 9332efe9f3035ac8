package schedule

import "testing"

func TestArrivalSlot(t *testing.T) {
	cases := map[int]string{
		1:    "11:00",
		30:   "11:00",
		31:   "11:30",
		60:   "11:30",
		61:   "12:00",
		91:   "12:30",
		330:  "16:00",
		331:  "16:30",
		360:  "16:30",
		361:  "17:00",
		1000: "17:00",
	}
	for serial, want := range cases {
		if got := ArrivalSlot(serial); got != want {
			t.Errorf("serial %d: expected %s, got %s", serial, want, got)
		}
	}
}

func TestArrivalSlot_NonDecreasing(t *testing.T) {
	prev := ArrivalSlot(1)
	for serial := 2; serial <= 500; serial++ {
		cur := ArrivalSlot(serial)
		if cur < prev {
			t.Fatalf("slot went backwards at serial %d: %s after %s", serial, cur, prev)
		}
		prev = cur
	}
}

func TestArrivalSlot_ClampsInvalidSerial(t *testing.T) {
	if got := ArrivalSlot(0); got != "11:00" {
		t.Fatalf("expected 11:00 for serial 0, got %s", got)
	}
}
