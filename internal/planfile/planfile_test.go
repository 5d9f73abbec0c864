package planfile

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/kr/pretty"

	"kcep/internal/address"
	"kcep/internal/arith"
	"kcep/internal/plan"
	"kcep/internal/primitive"
)

// roundTrip dumps instrs, reloads them, and returns the result, the shared
// body for every case below.
func roundTrip(t *testing.T, instrs []plan.Instruction) []plan.Instruction {
	t.Helper()
	data, err := Dump(instrs)
	if err != nil {
		t.Fatalf("Dump: %v", err)
	}
	got, err := Load(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Load: %v\n%s", err, data)
	}
	return got
}

func TestRoundTripEveryInstructionKind(t *testing.T) {
	addr := address.Address(4)
	cmdID := uuid.New()
	cases := []plan.Instruction{
		plan.NewApiRequest("StartPath", &addr, []plan.InMemory{plan.AddressLocator(address.Address(1))}, cmdID),
		plan.NewSetPrimitive(address.Address(0), primitive.IntValue(-7)),
		plan.NewSetValue(address.Address(2), []primitive.Primitive{primitive.FloatValue(1.5), primitive.UIntValue(3)}),
		plan.NewSetList(address.Address(6), [][]primitive.Primitive{{primitive.UIntValue(1)}, {primitive.UIntValue(2)}}),
		plan.NewAddrOfMember(address.Address(6), plan.LiteralOperand(primitive.UIntValue(0))),
		plan.NewBinaryArithmetic(arith.Add, plan.LiteralOperand(primitive.IntValue(1)), plan.LiteralOperand(primitive.IntValue(2)), plan.AddressDestination(address.Address(9))),
		plan.NewUnaryArithmetic(arith.Neg, plan.LiteralOperand(primitive.IntValue(3)), plan.StackPushDestination()),
		plan.NewStackPush([]primitive.Primitive{primitive.Bool(true), primitive.String("x")}),
		plan.NewStackPop(&addr),
		plan.NewCopy(plan.MemoryRange(address.Address(0)), 3, plan.MemoryRange(address.Address(10))),
		plan.NewCopyLen(plan.MemoryRangeLen(address.Address(0), 2), plan.StackRangeLen(2)),
	}

	got := roundTrip(t, cases)
	if len(got) != len(cases) {
		t.Fatalf("expected %d instructions back, got %d", len(cases), len(got))
	}
	for i := range cases {
		if diff := pretty.Diff(cases[i], got[i]); len(diff) > 0 {
			t.Errorf("instruction %d (%s) round-trip mismatch: %v", i, cases[i].Kind, diff)
		}
	}
}

func TestRoundTripPrimitiveVariants(t *testing.T) {
	values := []primitive.Primitive{
		primitive.Nil(),
		primitive.String("hello"),
		primitive.Bool(false),
		primitive.UUIDValue(uuid.New()),
		primitive.BytesValue([]byte{0, 1, 2, 255}),
		primitive.UIntValue(42),
		primitive.IntValue(-42),
		primitive.FloatValue(3.25),
		primitive.ListHeaderValue(3, 9),
		primitive.ObjectHeaderValue([]string{"x", "y"}, 2),
	}
	instrs := make([]plan.Instruction, len(values))
	for i, v := range values {
		instrs[i] = plan.NewSetPrimitive(address.Address(i), v)
	}

	got := roundTrip(t, instrs)
	for i, v := range values {
		if !primitive.Equal(v, got[i].Value) {
			t.Errorf("primitive %d: expected %+v, got %+v", i, v, got[i].Value)
		}
	}
}

func TestLoadRejectsUnknownInstructionType(t *testing.T) {
	_, err := Load(strings.NewReader(`[{"type":"Teleport"}]`))
	if err == nil {
		t.Fatal("expected an error for an unknown instruction type")
	}
}

func TestLoadRejectsUnknownOperandType(t *testing.T) {
	body := `[{"type":"BinaryArithmetic","op":"Add","operand0":{"type":"Mystery"},"operand1":{"type":"Literal","value":{"type":"Int","value_int":1}},"dst":{"type":"StackPush"}}]`
	_, err := Load(strings.NewReader(body))
	if err == nil {
		t.Fatal("expected an error for an unknown operand type")
	}
}
