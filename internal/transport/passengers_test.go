package transport

import "testing"

func carrierAt(pos Vec3, orient float64) *CarrierInstance {
	c := &CarrierInstance{Position: pos, Orientation: orient}
	return c
}

func TestBoardRejectsOutOfBounds(t *testing.T) {
	c := carrierAt(Vec3{}, 0)
	frame := NewPassengerFrame(c)
	p := NewMemPlayer(1)

	_, err := frame.Board(p, LocalPosition{X: 100}, 0)
	if err != ErrOutOfBounds {
		t.Fatalf("err = %v, want ErrOutOfBounds", err)
	}
}

func TestBoardRejectsDoubleBoard(t *testing.T) {
	c := carrierAt(Vec3{}, 0)
	frame := NewPassengerFrame(c)
	p := NewMemPlayer(1)

	if _, err := frame.Board(p, LocalPosition{X: 1}, 0); err != nil {
		t.Fatalf("first Board: %v", err)
	}
	if _, err := frame.Board(p, LocalPosition{X: 2}, 0); err != ErrAlreadyBoarded {
		t.Fatalf("err = %v, want ErrAlreadyBoarded", err)
	}
}

func TestUnboardThenRebindSucceeds(t *testing.T) {
	c := carrierAt(Vec3{}, 0)
	frame := NewPassengerFrame(c)
	p := NewMemPlayer(1)

	slot, _ := frame.Board(p, LocalPosition{X: 1}, 0)
	frame.Unboard(slot.ID)

	if _, err := frame.Board(p, LocalPosition{X: 1}, 0); err != nil {
		t.Fatalf("Board after Unboard: %v", err)
	}
}

func TestCalculateGlobalPositionOfRotatesByOrientation(t *testing.T) {
	c := carrierAt(Vec3{X: 100, Y: 0, Z: 0}, 0)
	frame := NewPassengerFrame(c)

	global, _ := frame.CalculateGlobalPositionOf(LocalPosition{X: 5, Y: 0, Z: 0})
	if global.X != 105 || global.Y != 0 {
		t.Errorf("global = %+v, want {105 0 0}", global)
	}
}

func TestBoardRejectsAlreadyBoardedOnAnotherCarrier(t *testing.T) {
	a := carrierAt(Vec3{}, 0)
	frameA := NewPassengerFrame(a)
	b := carrierAt(Vec3{}, 0)
	frameB := NewPassengerFrame(b)
	p := NewMemPlayer(1)

	if _, err := frameA.Board(p, LocalPosition{X: 1}, 0); err != nil {
		t.Fatalf("Board on carrier A: %v", err)
	}
	if _, err := frameB.Board(p, LocalPosition{X: 1}, 0); err != ErrAlreadyBoarded {
		t.Fatalf("Board on carrier B: err = %v, want ErrAlreadyBoarded", err)
	}
}

func TestHasOnBoardWalksNestedVehicle(t *testing.T) {
	outer := carrierAt(Vec3{}, 0)
	outerFrame := NewPassengerFrame(outer)

	inner := carrierAt(Vec3{}, 0)
	innerFrame := NewPassengerFrame(inner)
	innerCarrierPassenger := &vehiclePassenger{frame: innerFrame}

	passenger := NewMemPlayer(99)
	innerFrame.Board(passenger, LocalPosition{}, 0)
	outerFrame.Board(innerCarrierPassenger, LocalPosition{}, 0)

	if !outerFrame.HasOnBoard(passenger) {
		t.Error("HasOnBoard did not find passenger nested inside a boarded vehicle")
	}
}

// vehiclePassenger is a Passenger whose AsCarrier exposes a nested
// PassengerFrame, used to exercise HasOnBoard's ancestor-chain walk.
type vehiclePassenger struct {
	frame        *PassengerFrame
	currentFrame *PassengerFrame
}

func (v *vehiclePassenger) Kind() PassengerKind               { return PassengerVehicle }
func (v *vehiclePassenger) AsCarrier() *PassengerFrame        { return v.frame }
func (v *vehiclePassenger) CurrentFrame() *PassengerFrame     { return v.currentFrame }
func (v *vehiclePassenger) SetCurrentFrame(f *PassengerFrame) { v.currentFrame = f }
