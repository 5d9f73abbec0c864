package stepper

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"kcep/internal/address"
	"kcep/internal/arith"
	"kcep/internal/endpoint"
	"kcep/internal/errors"
	"kcep/internal/memory"
	"kcep/internal/plan"
	"kcep/internal/primitive"
)

// The scenarios below follow spec.md §8's seeded end-to-end list verbatim.

func TestScenario1SetAndReadPrimitive(t *testing.T) {
	mem, stack := memory.New(), memory.NewStack()
	instr := plan.NewSetPrimitive(address.Address(0), primitive.FloatValue(3.4))

	var w plan.EventWriter
	if err := Step(context.Background(), mem, stack, instr, &w, nil); err != nil {
		t.Fatal(err)
	}
	got, ok := mem.Get(address.Address(0))
	if !ok || got.Num.Float != 3.4 {
		t.Fatalf("expected 3.4 at address 0, got %+v ok=%v", got, ok)
	}
}

func TestScenario2AddTwoLiterals(t *testing.T) {
	mem, stack := memory.New(), memory.NewStack()
	instr := plan.NewBinaryArithmetic(arith.Add,
		plan.LiteralOperand(primitive.IntValue(3)),
		plan.LiteralOperand(primitive.IntValue(2)),
		plan.AddressDestination(address.Address(1)))

	var w plan.EventWriter
	if err := Step(context.Background(), mem, stack, instr, &w, nil); err != nil {
		t.Fatal(err)
	}
	got, _ := mem.Get(address.Address(1))
	if got.Num.Int != 5 {
		t.Fatalf("expected 5, got %+v", got)
	}
}

func TestScenario3AddLiteralToReferencedCell(t *testing.T) {
	mem, stack := memory.New(), memory.NewStack()
	program := []plan.Instruction{
		plan.NewSetPrimitive(address.Address(0), primitive.IntValue(450)),
		plan.NewBinaryArithmetic(arith.Add,
			plan.ReferenceOperand(address.Address(0)),
			plan.LiteralOperand(primitive.IntValue(20)),
			plan.AddressDestination(address.Address(1))),
	}
	if _, err := Run(context.Background(), mem, stack, program, nil); err != nil {
		t.Fatal(err)
	}
	got, _ := mem.Get(address.Address(1))
	if got.Num.Int != 470 {
		t.Fatalf("expected 470, got %+v", got)
	}
}

func TestScenario4CompositeWriteThenArithmeticMutatesOnlyFirstComponent(t *testing.T) {
	mem, stack := memory.New(), memory.NewStack()
	memory.SetComposite[endpoint.Point3D](mem, address.Address(0), endpoint.Point3D{X: 2.0, Y: 3.0, Z: 4.0})

	instr := plan.NewBinaryArithmetic(arith.Add,
		plan.ReferenceOperand(address.Address(0)),
		plan.LiteralOperand(primitive.FloatValue(40.0)),
		plan.AddressDestination(address.Address(0)))

	var w plan.EventWriter
	if err := Step(context.Background(), mem, stack, instr, &w, nil); err != nil {
		t.Fatal(err)
	}

	got, err := memory.GetComposite(mem, address.Address(0), endpoint.DecodePoint3D)
	if err != nil {
		t.Fatal(err)
	}
	if got.X != 42.0 || got.Y != 3.0 || got.Z != 4.0 {
		t.Fatalf("expected (42,3,4), got %+v", got)
	}
}

func TestScenario5ListMemberAddressing(t *testing.T) {
	mem, stack := memory.New(), memory.NewStack()
	setList := plan.NewSetList(address.Address(5), [][]primitive.Primitive{
		{primitive.UIntValue(10)},
		{primitive.UIntValue(20)},
		{primitive.UIntValue(30)},
	})
	addrOf := plan.NewAddrOfMember(address.Address(5), plan.LiteralOperand(primitive.UIntValue(2)))

	if _, err := Run(context.Background(), mem, stack, []plan.Instruction{setList, addrOf}, nil); err != nil {
		t.Fatal(err)
	}

	frame, err := stack.Pop()
	if err != nil {
		t.Fatal(err)
	}
	if len(frame) != 1 {
		t.Fatalf("expected a one-primitive frame, got %d", len(frame))
	}
	target := address.Address(frame[0].Num.UInt)
	p, ok := mem.Get(target)
	if !ok || p.Num.UInt != 30 {
		t.Fatalf("expected 30 at resolved address %d, got %+v ok=%v", target, p, ok)
	}
}

func TestScenario6OutOfBoundsListAccessRetainsPreStepSnapshot(t *testing.T) {
	mem, stack := memory.New(), memory.NewStack()
	program := []plan.Instruction{
		plan.NewSetList(address.Address(5), [][]primitive.Primitive{
			{primitive.UIntValue(10)},
			{primitive.UIntValue(20)},
			{primitive.UIntValue(30)},
		}),
		plan.NewAddrOfMember(address.Address(5), plan.LiteralOperand(primitive.UIntValue(9))),
	}

	hist := RunTimeTravel(context.Background(), mem, stack, program, nil)
	if hist.Err == nil {
		t.Fatalf("expected an error")
	}
	kerr, ok := hist.Err.(*errors.Error)
	if !ok || kerr.Kind != errors.ListIndexOutOfBounds {
		t.Fatalf("expected ListIndexOutOfBounds, got %v", hist.Err)
	}
	if kerr.Count != 3 || kerr.Index != 9 {
		t.Fatalf("expected count=3 index=9, got count=%d index=%d", kerr.Count, kerr.Index)
	}
	if len(hist.Snapshots) != 2 {
		t.Fatalf("expected a snapshot for each attempted step, got %d", len(hist.Snapshots))
	}

	// AddrOfMember never mutates memory before failing, so the retained
	// snapshot must still show the list exactly as the prior step left it.
	last := hist.Snapshots[len(hist.Snapshots)-1]
	header, ok := last.Memory.Get(address.Address(5))
	if !ok || header.List.Count != 3 {
		t.Fatalf("expected the list header to survive the failed step, got %+v ok=%v", header, ok)
	}
}

func TestNilDispatcherReportsNoApiClient(t *testing.T) {
	mem, stack := memory.New(), memory.NewStack()
	instr := plan.NewApiRequest(endpoint.StartPath, nil, nil, uuid.New())
	var w plan.EventWriter
	err := Step(context.Background(), mem, stack, instr, &w, nil)
	kerr, ok := err.(*errors.Error)
	if !ok || kerr.Kind != errors.NoAPIClient {
		t.Fatalf("expected NoApiClient, got %v", err)
	}
}
