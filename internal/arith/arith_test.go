package arith

import (
	"math"
	"testing"

	"kcep/internal/errors"
	"kcep/internal/primitive"
)

func TestEvalBinaryAddLiterals(t *testing.T) {
	got, err := EvalBinary(Add, primitive.IntValue(3), primitive.IntValue(2))
	if err != nil {
		t.Fatal(err)
	}
	if got.Num.Int != 5 {
		t.Fatalf("expected 5, got %+v", got)
	}
}

func TestEvalBinaryCoercionUIntInt(t *testing.T) {
	got, err := EvalBinary(Add, primitive.UIntValue(3), primitive.IntValue(-1))
	if err != nil {
		t.Fatal(err)
	}
	if got.Num.Kind != primitive.NumInt || got.Num.Int != 2 {
		t.Fatalf("expected Int(2), got %+v", got)
	}
}

func TestEvalBinaryCoercionIntFloat(t *testing.T) {
	got, err := EvalBinary(Add, primitive.IntValue(2), primitive.FloatValue(0.5))
	if err != nil {
		t.Fatal(err)
	}
	if got.Num.Kind != primitive.NumFloat || got.Num.Float != 2.5 {
		t.Fatalf("expected Float(2.5), got %+v", got)
	}
}

func TestEvalBinaryNonNumericCannotApplyOperation(t *testing.T) {
	_, err := EvalBinary(Add, primitive.String("x"), primitive.IntValue(1))
	kerr, ok := err.(*errors.Error)
	if !ok || kerr.Kind != errors.CannotApplyOperation {
		t.Fatalf("expected CannotApplyOperation, got %v", err)
	}
}

func TestEvalBinaryDivisionByZero(t *testing.T) {
	_, err := EvalBinary(Div, primitive.IntValue(1), primitive.IntValue(0))
	kerr, ok := err.(*errors.Error)
	if !ok || kerr.Kind != errors.DivisionByZero {
		t.Fatalf("expected DivisionByZero, got %v", err)
	}
}

func TestEvalBinaryFloatDivisionByZeroIsInf(t *testing.T) {
	got, err := EvalBinary(Div, primitive.FloatValue(1), primitive.FloatValue(0))
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsInf(got.Num.Float, 1) {
		t.Fatalf("expected +Inf per IEEE-754, got %v", got.Num.Float)
	}
}

func TestEvalUnaryNot(t *testing.T) {
	got, err := EvalUnary(Not, primitive.Bool(true))
	if err != nil {
		t.Fatal(err)
	}
	if got.Bool != false {
		t.Fatalf("expected false, got %+v", got)
	}
}

func TestEvalUnaryNegFloat(t *testing.T) {
	got, err := EvalUnary(Neg, primitive.FloatValue(3.5))
	if err != nil {
		t.Fatal(err)
	}
	if got.Num.Float != -3.5 {
		t.Fatalf("expected -3.5, got %+v", got)
	}
}

func TestEvalUnaryNegOnUIntIsCannotApplyOperation(t *testing.T) {
	_, err := EvalUnary(Neg, primitive.UIntValue(3))
	kerr, ok := err.(*errors.Error)
	if !ok || kerr.Kind != errors.CannotApplyOperation {
		t.Fatalf("expected CannotApplyOperation (Neg requires signed int or float), got %v", err)
	}
}
