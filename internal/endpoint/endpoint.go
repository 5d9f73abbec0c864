// Package endpoint implements the representative CAD-command catalog and
// the FromMemory-style argument binding of §4.6 (C8): for a given endpoint
// name, consume an ordered list of InMemory locators and materialize a
// typed request.
//
// The full command schema set is out of scope (spec.md §1): this catalog
// stands in for it, grounded on
// original_source/modeling-cmds/src/each_cmd.rs's per-command struct shape
// and original_source/execution-plan/src/api_request.rs's
// `match endpoint { ... from_memory(...) }` dispatch, translated from a
// closed Rust enum match to a Go switch on the endpoint name (Go has no
// exhaustive sum-type match, so an unknown name falls to the default case).
package endpoint

import (
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"kcep/internal/errors"
	"kcep/internal/memory"
	"kcep/internal/plan"
	"kcep/internal/primitive"
	"kcep/internal/value"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Point3D is a 3-float composite used by several commands.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (p Point3D) IntoParts() []primitive.Primitive {
	parts := value.EncodeFloat64(p.X)
	parts = append(parts, value.EncodeFloat64(p.Y)...)
	parts = append(parts, value.EncodeFloat64(p.Z)...)
	return parts
}

func DecodePoint3D(it *value.Iter) (Point3D, int, error) {
	x, n1, err := value.DecodeFloat64(it)
	if err != nil {
		return Point3D{}, 0, err
	}
	y, n2, err := value.DecodeFloat64(it)
	if err != nil {
		return Point3D{}, 0, err
	}
	z, n3, err := value.DecodeFloat64(it)
	if err != nil {
		return Point3D{}, 0, err
	}
	return Point3D{X: x, Y: y, Z: z}, n1 + n2 + n3, nil
}

// PathSegment is a small tagged sum ("Line" or "Arc") exercising the
// tagged-sum encoding rule for a real catalog member, not just the
// synthetic value.SumExample.
type SegmentKind string

const (
	SegmentLine SegmentKind = "Line"
	SegmentArc  SegmentKind = "Arc"
)

var segmentVariants = []string{string(SegmentLine), string(SegmentArc)}

type PathSegment struct {
	Kind   SegmentKind `json:"type"`
	To     Point3D     `json:"to,omitempty"`     // Line
	Center Point3D     `json:"center,omitempty"` // Arc
	Radius float64     `json:"radius,omitempty"` // Arc
}

func LineSegment(to Point3D) PathSegment { return PathSegment{Kind: SegmentLine, To: to} }

func ArcSegment(center Point3D, radius float64) PathSegment {
	return PathSegment{Kind: SegmentArc, Center: center, Radius: radius}
}

func (s PathSegment) IntoParts() []primitive.Primitive {
	parts := []primitive.Primitive{primitive.String(string(s.Kind))}
	switch s.Kind {
	case SegmentLine:
		parts = append(parts, s.To.IntoParts()...)
	case SegmentArc:
		parts = append(parts, s.Center.IntoParts()...)
		parts = append(parts, value.EncodeFloat64(s.Radius)...)
	}
	return parts
}

func DecodePathSegment(it *value.Iter) (PathSegment, int, error) {
	p, n, err := value.DecodePrimitive(it)
	if err != nil {
		return PathSegment{}, 0, err
	}
	tag, err := p.AsString()
	if err != nil {
		return PathSegment{}, 0, err
	}
	switch SegmentKind(tag) {
	case SegmentLine:
		to, n2, err := DecodePoint3D(it)
		if err != nil {
			return PathSegment{}, 0, err
		}
		return LineSegment(to), n + n2, nil
	case SegmentArc:
		center, n2, err := DecodePoint3D(it)
		if err != nil {
			return PathSegment{}, 0, err
		}
		radius, n3, err := value.DecodeFloat64(it)
		if err != nil {
			return PathSegment{}, 0, err
		}
		return ArcSegment(center, radius), n + n2 + n3, nil
	default:
		return PathSegment{}, 0, errors.NewInvalidEnumVariant("PathSegment", tag, segmentVariants)
	}
}

// --- request/response catalog ---

const (
	StartPath    = "StartPath"
	MovePathPen  = "MovePathPen"
	ExtendPath   = "ExtendPath"
	ClosePath    = "ClosePath"
	Extrude      = "Extrude"
	TakeSnapshot = "TakeSnapshot"
)

type StartPathReq struct{}

func (StartPathReq) IntoParts() []primitive.Primitive { return nil }

type StartPathResp struct {
	PathID uuid.UUID `json:"path_id"`
}

func (r StartPathResp) IntoParts() []primitive.Primitive {
	return []primitive.Primitive{primitive.UUIDValue(r.PathID)}
}

func DecodeStartPathResp(it *value.Iter) (StartPathResp, int, error) {
	p, n, err := value.DecodePrimitive(it)
	if err != nil {
		return StartPathResp{}, 0, err
	}
	id, err := p.AsUUID()
	if err != nil {
		return StartPathResp{}, 0, err
	}
	return StartPathResp{PathID: id}, n, nil
}

type MovePathPenReq struct {
	Path uuid.UUID `json:"path"`
	To   Point3D   `json:"to"`
}

func (r MovePathPenReq) IntoParts() []primitive.Primitive {
	parts := []primitive.Primitive{primitive.UUIDValue(r.Path)}
	return append(parts, r.To.IntoParts()...)
}

type MovePathPenResp struct{}

func (MovePathPenResp) IntoParts() []primitive.Primitive { return nil }

type ExtendPathReq struct {
	Path    uuid.UUID   `json:"path"`
	Segment PathSegment `json:"segment"`
}

func (r ExtendPathReq) IntoParts() []primitive.Primitive {
	parts := []primitive.Primitive{primitive.UUIDValue(r.Path)}
	return append(parts, r.Segment.IntoParts()...)
}

type ExtendPathResp struct{}

func (ExtendPathResp) IntoParts() []primitive.Primitive { return nil }

type ClosePathReq struct {
	Path uuid.UUID `json:"path"`
}

func (r ClosePathReq) IntoParts() []primitive.Primitive {
	return []primitive.Primitive{primitive.UUIDValue(r.Path)}
}

type ClosePathResp struct{}

func (ClosePathResp) IntoParts() []primitive.Primitive { return nil }

type ExtrudeReq struct {
	Target   uuid.UUID `json:"target"`
	Distance float64   `json:"distance"`
}

func (r ExtrudeReq) IntoParts() []primitive.Primitive {
	parts := []primitive.Primitive{primitive.UUIDValue(r.Target)}
	return append(parts, value.EncodeFloat64(r.Distance)...)
}

type ExtrudeResp struct {
	EntityFaceEdgeIDs []uuid.UUID `json:"entity_face_edge_ids"`
}

func (r ExtrudeResp) IntoParts() []primitive.Primitive {
	return value.EncodeSlice(r.EntityFaceEdgeIDs, func(id uuid.UUID) []primitive.Primitive {
		return []primitive.Primitive{primitive.UUIDValue(id)}
	})
}

func DecodeExtrudeResp(it *value.Iter) (ExtrudeResp, int, error) {
	ids, n, err := value.DecodeSlice(it, decodeUUID)
	if err != nil {
		return ExtrudeResp{}, 0, err
	}
	return ExtrudeResp{EntityFaceEdgeIDs: ids}, n, nil
}

type TakeSnapshotReq struct {
	Format string `json:"format"`
}

func (r TakeSnapshotReq) IntoParts() []primitive.Primitive {
	return []primitive.Primitive{primitive.String(r.Format)}
}

type TakeSnapshotResp struct {
	Contents []byte `json:"contents"`
}

func (r TakeSnapshotResp) IntoParts() []primitive.Primitive {
	return []primitive.Primitive{primitive.BytesValue(r.Contents)}
}

func DecodeTakeSnapshotResp(it *value.Iter) (TakeSnapshotResp, int, error) {
	p, n, err := value.DecodePrimitive(it)
	if err != nil {
		return TakeSnapshotResp{}, 0, err
	}
	b, err := p.AsBytes()
	if err != nil {
		return TakeSnapshotResp{}, 0, err
	}
	return TakeSnapshotResp{Contents: b}, n, nil
}

// Request is any catalog command built from memory-resident arguments.
type Request interface {
	IntoParts() []primitive.Primitive
}

// Response is any catalog response, decoded off the wire and writable back
// into memory via its Value parts (§4.6 step 4: "write the response's
// Value parts starting at that address").
type Response interface {
	IntoParts() []primitive.Primitive
}

// DecodeWireResponse unmarshals the raw modeling_response payload the
// session hands back (§6: "data.modeling_response ... a tagged union
// matching the set of endpoint outputs") into the typed Response for ep,
// the read-side counterpart of Build. Grounded on the same
// `match endpoint { ... }` dispatch in api_request.rs that Build mirrors on
// the write side.
func DecodeWireResponse(ep string, raw []byte) (Response, error) {
	switch ep {
	case StartPath:
		var r StartPathResp
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, errors.NewWrongType("StartPathResp", err.Error())
		}
		return r, nil
	case MovePathPen:
		return MovePathPenResp{}, nil
	case ExtendPath:
		return ExtendPathResp{}, nil
	case ClosePath:
		return ClosePathResp{}, nil
	case Extrude:
		var r ExtrudeResp
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, errors.NewWrongType("ExtrudeResp", err.Error())
		}
		return r, nil
	case TakeSnapshot:
		var r TakeSnapshotResp
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, errors.NewWrongType("TakeSnapshotResp", err.Error())
		}
		return r, nil
	default:
		return nil, errors.NewInvalidEnumVariant("endpoint", ep, []string{
			StartPath, MovePathPen, ExtendPath, ClosePath, Extrude, TakeSnapshot,
		})
	}
}

// resolveField reads the single composite value a locator names, the
// per-field half of the FromMemory contract (§3: "from_memory ... consumes
// one address per field").
func resolveField[T any](mem *memory.Memory, stack *memory.Stack, loc plan.InMemory, decode value.Decoder[T]) (T, error) {
	var zero T
	switch loc.Kind {
	case plan.LocatorAddress:
		return memory.GetComposite(mem, loc.Address, decode)
	case plan.LocatorStackPop:
		frame, err := stack.Pop()
		if err != nil {
			return zero, err
		}
		v, _, err := decode(value.NewIter(presentSlots(frame)))
		return v, err
	case plan.LocatorStackPeek:
		frame, err := stack.Peek()
		if err != nil {
			return zero, err
		}
		v, _, err := decode(value.NewIter(presentSlots(frame)))
		return v, err
	default:
		return zero, errors.NewWrongType("InMemory locator", "unknown")
	}
}

func presentSlots(frame memory.Frame) []value.Slot {
	slots := make([]value.Slot, len(frame))
	for i, p := range frame {
		slots[i] = value.Slot{Primitive: p, Present: true}
	}
	return slots
}

// Build materializes the typed request for endpoint from locators, in
// declaration order, per §4.6 step 1.
func Build(ep string, locators []plan.InMemory, mem *memory.Memory, stack *memory.Stack) (Request, error) {
	need := func(n int) error {
		if len(locators) != n {
			return errors.NewWrongSize()
		}
		return nil
	}
	switch ep {
	case StartPath:
		if err := need(0); err != nil {
			return nil, err
		}
		return StartPathReq{}, nil
	case MovePathPen:
		if err := need(2); err != nil {
			return nil, err
		}
		path, err := resolveField(mem, stack, locators[0], decodeUUID)
		if err != nil {
			return nil, err
		}
		to, err := resolveField(mem, stack, locators[1], DecodePoint3D)
		if err != nil {
			return nil, err
		}
		return MovePathPenReq{Path: path, To: to}, nil
	case ExtendPath:
		if err := need(2); err != nil {
			return nil, err
		}
		path, err := resolveField(mem, stack, locators[0], decodeUUID)
		if err != nil {
			return nil, err
		}
		seg, err := resolveField(mem, stack, locators[1], DecodePathSegment)
		if err != nil {
			return nil, err
		}
		return ExtendPathReq{Path: path, Segment: seg}, nil
	case ClosePath:
		if err := need(1); err != nil {
			return nil, err
		}
		path, err := resolveField(mem, stack, locators[0], decodeUUID)
		if err != nil {
			return nil, err
		}
		return ClosePathReq{Path: path}, nil
	case Extrude:
		if err := need(2); err != nil {
			return nil, err
		}
		target, err := resolveField(mem, stack, locators[0], decodeUUID)
		if err != nil {
			return nil, err
		}
		distance, err := resolveField(mem, stack, locators[1], value.DecodeFloat64)
		if err != nil {
			return nil, err
		}
		return ExtrudeReq{Target: target, Distance: distance}, nil
	case TakeSnapshot:
		if err := need(1); err != nil {
			return nil, err
		}
		format, err := resolveField(mem, stack, locators[0], value.DecodeString)
		if err != nil {
			return nil, err
		}
		return TakeSnapshotReq{Format: format}, nil
	default:
		return nil, errors.NewInvalidEnumVariant("endpoint", ep, []string{
			StartPath, MovePathPen, ExtendPath, ClosePath, Extrude, TakeSnapshot,
		})
	}
}

func decodeUUID(it *value.Iter) (uuid.UUID, int, error) {
	p, n, err := value.DecodePrimitive(it)
	if err != nil {
		return uuid.UUID{}, 0, err
	}
	id, err := p.AsUUID()
	if err != nil {
		return uuid.UUID{}, 0, err
	}
	return id, n, nil
}
