// Package planfile implements the external plan file format of spec.md §6:
// a top-level JSON array of tagged-object instructions, with operands,
// destinations, and primitives each using their own tagged-object
// encoding. This is the idiomatic Go substitute for
// `#[derive(Deserialize)]` on the original Rust Instruction/Operand/
// Destination/Primitive enums — one flat wire struct per sum type with a
// from*/to* conversion pair, switching on a `"type"` discriminator the way
// the teacher's own bytecode reader switches on an opcode byte.
package planfile

import (
	"io"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	pkgerrors "github.com/pkg/errors"

	"kcep/internal/address"
	"kcep/internal/arith"
	"kcep/internal/errors"
	"kcep/internal/plan"
	"kcep/internal/primitive"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Load decodes a plan from r, the shared entry point for a `plan.json` file
// or `-` (standard input) in cmd/kcep-run.
func Load(r io.Reader) ([]plan.Instruction, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "planfile: reading plan")
	}
	var wire []wireInstruction
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, pkgerrors.Wrap(err, "planfile: decoding plan")
	}
	out := make([]plan.Instruction, len(wire))
	for i, w := range wire {
		instr, err := w.toInstruction()
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "planfile: instruction %d", i)
		}
		out[i] = instr
	}
	return out, nil
}

// Dump encodes program back into the plan file format, the reverse
// direction the debugger uses to persist an edited plan.
func Dump(program []plan.Instruction) ([]byte, error) {
	wire := make([]wireInstruction, len(program))
	for i, instr := range program {
		wire[i] = fromInstruction(instr)
	}
	return json.MarshalIndent(wire, "", "  ")
}

// --- Primitive -------------------------------------------------------

type wirePrimitive struct {
	Type       string     `json:"type"`
	Str        string     `json:"value,omitempty"`
	UInt       *uint64    `json:"value_uint,omitempty"`
	Int        *int64     `json:"value_int,omitempty"`
	Float      *float64   `json:"value_float,omitempty"`
	UUID       *uuid.UUID `json:"value_uuid,omitempty"`
	Bytes      []byte     `json:"value_bytes,omitempty"`
	Bool       *bool      `json:"value_bool,omitempty"`
	Count      int        `json:"count,omitempty"`
	Size       int        `json:"size,omitempty"`
	Properties []string   `json:"properties,omitempty"`
}

func fromPrimitive(p primitive.Primitive) wirePrimitive {
	switch p.Kind {
	case primitive.KindNil:
		return wirePrimitive{Type: "Nil"}
	case primitive.KindString:
		return wirePrimitive{Type: "String", Str: p.Str}
	case primitive.KindBool:
		b := p.Bool
		return wirePrimitive{Type: "Bool", Bool: &b}
	case primitive.KindUUID:
		u := p.UUID
		return wirePrimitive{Type: "Uuid", UUID: &u}
	case primitive.KindBytes:
		return wirePrimitive{Type: "Bytes", Bytes: p.Bytes}
	case primitive.KindListHeader:
		return wirePrimitive{Type: "ListHeader", Count: p.List.Count, Size: p.List.Size}
	case primitive.KindObjectHeader:
		return wirePrimitive{Type: "ObjectHeader", Properties: p.Object.Properties, Size: p.Object.Size}
	case primitive.KindNumeric:
		switch p.Num.Kind {
		case primitive.NumUInt:
			v := p.Num.UInt
			return wirePrimitive{Type: "UInt", UInt: &v}
		case primitive.NumInt:
			v := p.Num.Int
			return wirePrimitive{Type: "Int", Int: &v}
		default:
			v := p.Num.Float
			return wirePrimitive{Type: "Float", Float: &v}
		}
	default:
		return wirePrimitive{Type: "Nil"}
	}
}

func (w wirePrimitive) toPrimitive() (primitive.Primitive, error) {
	switch w.Type {
	case "Nil":
		return primitive.Nil(), nil
	case "String":
		return primitive.String(w.Str), nil
	case "Bool":
		if w.Bool == nil {
			return primitive.Primitive{}, errors.NewWrongType("bool", "missing value_bool")
		}
		return primitive.Bool(*w.Bool), nil
	case "Uuid":
		if w.UUID == nil {
			return primitive.Primitive{}, errors.NewWrongType("uuid", "missing value_uuid")
		}
		return primitive.UUIDValue(*w.UUID), nil
	case "Bytes":
		return primitive.BytesValue(w.Bytes), nil
	case "ListHeader":
		return primitive.ListHeaderValue(w.Count, w.Size), nil
	case "ObjectHeader":
		return primitive.ObjectHeaderValue(w.Properties, w.Size), nil
	case "UInt":
		if w.UInt == nil {
			return primitive.Primitive{}, errors.NewWrongType("uint", "missing value_uint")
		}
		return primitive.UIntValue(*w.UInt), nil
	case "Int":
		if w.Int == nil {
			return primitive.Primitive{}, errors.NewWrongType("int", "missing value_int")
		}
		return primitive.IntValue(*w.Int), nil
	case "Float":
		if w.Float == nil {
			return primitive.Primitive{}, errors.NewWrongType("float", "missing value_float")
		}
		return primitive.FloatValue(*w.Float), nil
	default:
		return primitive.Primitive{}, errors.NewInvalidEnumVariant("primitive", w.Type, []string{
			"Nil", "String", "Bool", "Uuid", "Bytes", "ListHeader", "ObjectHeader", "UInt", "Int", "Float",
		})
	}
}

// --- Operand / Destination / locator ---------------------------------

type wireOperand struct {
	Type    string           `json:"type"`
	Value   *wirePrimitive   `json:"value,omitempty"`
	Address *address.Address `json:"address,omitempty"`
}

func fromOperand(o plan.Operand) wireOperand {
	switch o.Kind {
	case plan.OperandLiteral:
		v := fromPrimitive(o.Literal)
		return wireOperand{Type: "Literal", Value: &v}
	case plan.OperandReference:
		a := o.Address
		return wireOperand{Type: "Reference", Address: &a}
	default:
		return wireOperand{Type: "StackPop"}
	}
}

func (w wireOperand) toOperand() (plan.Operand, error) {
	switch w.Type {
	case "Literal":
		if w.Value == nil {
			return plan.Operand{}, errors.NewWrongType("primitive", "missing value")
		}
		p, err := w.Value.toPrimitive()
		if err != nil {
			return plan.Operand{}, err
		}
		return plan.LiteralOperand(p), nil
	case "Reference":
		if w.Address == nil {
			return plan.Operand{}, errors.NewWrongType("address", "missing address")
		}
		return plan.ReferenceOperand(*w.Address), nil
	case "StackPop":
		return plan.StackPopOperand(), nil
	default:
		return plan.Operand{}, errors.NewInvalidEnumVariant("operand", w.Type, []string{"Literal", "Reference", "StackPop"})
	}
}

type wireDestination struct {
	Type    string           `json:"type"`
	Address *address.Address `json:"address,omitempty"`
}

func fromDestination(d plan.Destination) wireDestination {
	switch d.Kind {
	case plan.DestinationAddress:
		a := d.Address
		return wireDestination{Type: "Address", Address: &a}
	case plan.DestinationStackPush:
		return wireDestination{Type: "StackPush"}
	default:
		return wireDestination{Type: "StackExtend"}
	}
}

func (w wireDestination) toDestination() (plan.Destination, error) {
	switch w.Type {
	case "Address":
		if w.Address == nil {
			return plan.Destination{}, errors.NewWrongType("address", "missing address")
		}
		return plan.AddressDestination(*w.Address), nil
	case "StackPush":
		return plan.StackPushDestination(), nil
	case "StackExtend":
		return plan.StackExtendDestination(), nil
	default:
		return plan.Destination{}, errors.NewInvalidEnumVariant("destination", w.Type, []string{"Address", "StackPush", "StackExtend"})
	}
}

// wireLocator is an ApiRequest argument's InMemory locator (§6: "Address,
// StackPop, or StackPeek").
type wireLocator struct {
	Type    string           `json:"type"`
	Address *address.Address `json:"address,omitempty"`
}

func fromLocator(l plan.InMemory) wireLocator {
	switch l.Kind {
	case plan.LocatorAddress:
		a := l.Address
		return wireLocator{Type: "Address", Address: &a}
	case plan.LocatorStackPop:
		return wireLocator{Type: "StackPop"}
	default:
		return wireLocator{Type: "StackPeek"}
	}
}

func (w wireLocator) toLocator() (plan.InMemory, error) {
	switch w.Type {
	case "Address":
		if w.Address == nil {
			return plan.InMemory{}, errors.NewWrongType("address", "missing address")
		}
		return plan.AddressLocator(*w.Address), nil
	case "StackPop":
		return plan.StackPopLocator(), nil
	case "StackPeek":
		return plan.StackPeekLocator(), nil
	default:
		return plan.InMemory{}, errors.NewInvalidEnumVariant("locator", w.Type, []string{"Address", "StackPop", "StackPeek"})
	}
}

// --- Range (Copy / CopyLen endpoints) ---------------------------------

type wireRange struct {
	Type  string           `json:"type"`
	Start *address.Address `json:"start,omitempty"`
	Len   int              `json:"len,omitempty"`
}

func fromRange(r plan.Range) wireRange {
	switch r.Kind {
	case plan.RangeMemory:
		start := r.Start
		return wireRange{Type: "Memory", Start: &start, Len: r.Len}
	default:
		return wireRange{Type: "Stack", Len: r.Len}
	}
}

func (w wireRange) toRange() (plan.Range, error) {
	switch w.Type {
	case "Memory":
		if w.Start == nil {
			return plan.Range{}, errors.NewWrongType("address", "missing start")
		}
		return plan.MemoryRangeLen(*w.Start, w.Len), nil
	case "Stack":
		return plan.StackRangeLen(w.Len), nil
	default:
		return plan.Range{}, errors.NewInvalidEnumVariant("range", w.Type, []string{"Memory", "Stack"})
	}
}

// --- Instruction -------------------------------------------------------

type wireInstruction struct {
	Type string `json:"type"`

	// ApiRequest
	Endpoint      string           `json:"endpoint,omitempty"`
	StoreResponse *address.Address `json:"store_response,omitempty"`
	Arguments     []wireLocator    `json:"arguments,omitempty"`
	CmdID         *uuid.UUID       `json:"cmd_id,omitempty"`

	// SetPrimitive
	Addr  *address.Address `json:"addr,omitempty"`
	Value *wirePrimitive   `json:"value,omitempty"`

	// SetValue
	Parts []wirePrimitive `json:"parts,omitempty"`

	// SetList
	Start    *address.Address  `json:"start,omitempty"`
	Elements [][]wirePrimitive `json:"elements,omitempty"`

	// AddrOfMember
	Member *wireOperand `json:"member,omitempty"`

	// BinaryArithmetic / UnaryArithmetic
	Op       string           `json:"op,omitempty"`
	Operand0 *wireOperand     `json:"operand0,omitempty"`
	Operand1 *wireOperand     `json:"operand1,omitempty"`
	Operand  *wireOperand     `json:"operand,omitempty"`
	Dst      *wireDestination `json:"dst,omitempty"`

	// StackPush
	Data []wirePrimitive `json:"data,omitempty"`

	// StackPop
	PopDst *address.Address `json:"pop_dst,omitempty"`

	// Copy
	Src    *wireRange `json:"src,omitempty"`
	Len    int        `json:"len,omitempty"`
	CopyTo *wireRange `json:"copy_to,omitempty"`

	// CopyLen
	SrcRange *wireRange `json:"src_range,omitempty"`
	DstRange *wireRange `json:"dst_range,omitempty"`
}

func fromInstruction(instr plan.Instruction) wireInstruction {
	w := wireInstruction{Type: instr.Kind.String()}
	switch instr.Kind {
	case plan.KindApiRequest:
		w.Endpoint = instr.Endpoint
		w.StoreResponse = instr.StoreResponse
		w.Arguments = make([]wireLocator, len(instr.Arguments))
		for i, a := range instr.Arguments {
			w.Arguments[i] = fromLocator(a)
		}
		cmdID := instr.CmdID
		w.CmdID = &cmdID
	case plan.KindSetPrimitive:
		addr := instr.Addr
		w.Addr = &addr
		v := fromPrimitive(instr.Value)
		w.Value = &v
	case plan.KindSetValue:
		addr := instr.Addr
		w.Addr = &addr
		w.Parts = make([]wirePrimitive, len(instr.Parts))
		for i, p := range instr.Parts {
			w.Parts[i] = fromPrimitive(p)
		}
	case plan.KindSetList:
		start := instr.Start
		w.Start = &start
		w.Elements = make([][]wirePrimitive, len(instr.Elements))
		for i, el := range instr.Elements {
			parts := make([]wirePrimitive, len(el))
			for j, p := range el {
				parts[j] = fromPrimitive(p)
			}
			w.Elements[i] = parts
		}
	case plan.KindAddrOfMember:
		start := instr.Start
		w.Start = &start
		m := fromOperand(instr.Member)
		w.Member = &m
	case plan.KindBinaryArithmetic:
		w.Op = string(instr.BinaryOp)
		o0, o1 := fromOperand(instr.Operand0), fromOperand(instr.Operand1)
		w.Operand0, w.Operand1 = &o0, &o1
		dst := fromDestination(instr.Dst)
		w.Dst = &dst
	case plan.KindUnaryArithmetic:
		w.Op = string(instr.UnaryOp)
		o := fromOperand(instr.Operand)
		w.Operand = &o
		dst := fromDestination(instr.Dst)
		w.Dst = &dst
	case plan.KindStackPush:
		w.Data = make([]wirePrimitive, len(instr.Data))
		for i, p := range instr.Data {
			w.Data[i] = fromPrimitive(p)
		}
	case plan.KindStackPop:
		w.PopDst = instr.PopDst
	case plan.KindCopy:
		src, dst := fromRange(instr.Src), fromRange(instr.CopyTo)
		w.Src, w.CopyTo = &src, &dst
		w.Len = instr.Len
	case plan.KindCopyLen:
		src, dst := fromRange(instr.SrcRange), fromRange(instr.DstRange)
		w.SrcRange, w.DstRange = &src, &dst
	}
	return w
}

func (w wireInstruction) toInstruction() (plan.Instruction, error) {
	switch w.Type {
	case "ApiRequest":
		args := make([]plan.InMemory, len(w.Arguments))
		for i, a := range w.Arguments {
			loc, err := a.toLocator()
			if err != nil {
				return plan.Instruction{}, err
			}
			args[i] = loc
		}
		cmdID := uuid.New()
		if w.CmdID != nil {
			cmdID = *w.CmdID
		}
		return plan.NewApiRequest(w.Endpoint, w.StoreResponse, args, cmdID), nil

	case "SetPrimitive":
		if w.Addr == nil || w.Value == nil {
			return plan.Instruction{}, errors.NewWrongType("SetPrimitive fields", "missing addr/value")
		}
		v, err := w.Value.toPrimitive()
		if err != nil {
			return plan.Instruction{}, err
		}
		return plan.NewSetPrimitive(*w.Addr, v), nil

	case "SetValue":
		if w.Addr == nil {
			return plan.Instruction{}, errors.NewWrongType("SetValue fields", "missing addr")
		}
		parts := make([]primitive.Primitive, len(w.Parts))
		for i, p := range w.Parts {
			v, err := p.toPrimitive()
			if err != nil {
				return plan.Instruction{}, err
			}
			parts[i] = v
		}
		return plan.NewSetValue(*w.Addr, parts), nil

	case "SetList":
		if w.Start == nil {
			return plan.Instruction{}, errors.NewWrongType("SetList fields", "missing start")
		}
		elements := make([][]primitive.Primitive, len(w.Elements))
		for i, el := range w.Elements {
			parts := make([]primitive.Primitive, len(el))
			for j, p := range el {
				v, err := p.toPrimitive()
				if err != nil {
					return plan.Instruction{}, err
				}
				parts[j] = v
			}
			elements[i] = parts
		}
		return plan.NewSetList(*w.Start, elements), nil

	case "AddrOfMember":
		if w.Start == nil || w.Member == nil {
			return plan.Instruction{}, errors.NewWrongType("AddrOfMember fields", "missing start/member")
		}
		member, err := w.Member.toOperand()
		if err != nil {
			return plan.Instruction{}, err
		}
		return plan.NewAddrOfMember(*w.Start, member), nil

	case "BinaryArithmetic":
		if w.Operand0 == nil || w.Operand1 == nil || w.Dst == nil {
			return plan.Instruction{}, errors.NewWrongType("BinaryArithmetic fields", "missing operand(s)/dst")
		}
		o0, err := w.Operand0.toOperand()
		if err != nil {
			return plan.Instruction{}, err
		}
		o1, err := w.Operand1.toOperand()
		if err != nil {
			return plan.Instruction{}, err
		}
		dst, err := w.Dst.toDestination()
		if err != nil {
			return plan.Instruction{}, err
		}
		return plan.NewBinaryArithmetic(arith.BinaryOp(w.Op), o0, o1, dst), nil

	case "UnaryArithmetic":
		if w.Operand == nil || w.Dst == nil {
			return plan.Instruction{}, errors.NewWrongType("UnaryArithmetic fields", "missing operand/dst")
		}
		o, err := w.Operand.toOperand()
		if err != nil {
			return plan.Instruction{}, err
		}
		dst, err := w.Dst.toDestination()
		if err != nil {
			return plan.Instruction{}, err
		}
		return plan.NewUnaryArithmetic(arith.UnaryOp(w.Op), o, dst), nil

	case "StackPush":
		data := make([]primitive.Primitive, len(w.Data))
		for i, p := range w.Data {
			v, err := p.toPrimitive()
			if err != nil {
				return plan.Instruction{}, err
			}
			data[i] = v
		}
		return plan.NewStackPush(data), nil

	case "StackPop":
		return plan.NewStackPop(w.PopDst), nil

	case "Copy":
		if w.Src == nil || w.CopyTo == nil {
			return plan.Instruction{}, errors.NewWrongType("Copy fields", "missing src/copy_to")
		}
		src, err := w.Src.toRange()
		if err != nil {
			return plan.Instruction{}, err
		}
		dst, err := w.CopyTo.toRange()
		if err != nil {
			return plan.Instruction{}, err
		}
		return plan.NewCopy(src, w.Len, dst), nil

	case "CopyLen":
		if w.SrcRange == nil || w.DstRange == nil {
			return plan.Instruction{}, errors.NewWrongType("CopyLen fields", "missing src_range/dst_range")
		}
		src, err := w.SrcRange.toRange()
		if err != nil {
			return plan.Instruction{}, err
		}
		dst, err := w.DstRange.toRange()
		if err != nil {
			return plan.Instruction{}, err
		}
		return plan.NewCopyLen(src, dst), nil

	default:
		return plan.Instruction{}, errors.NewInvalidEnumVariant("instruction", w.Type, []string{
			"ApiRequest", "SetPrimitive", "SetValue", "SetList", "AddrOfMember",
			"BinaryArithmetic", "UnaryArithmetic", "StackPush", "StackPop", "Copy", "CopyLen",
		})
	}
}
