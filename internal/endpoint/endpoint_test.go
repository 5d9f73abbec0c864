package endpoint

import (
	"testing"

	"github.com/google/uuid"

	"kcep/internal/address"
	"kcep/internal/memory"
	"kcep/internal/plan"
	"kcep/internal/primitive"
)

func TestBuildMovePathPenFromAddresses(t *testing.T) {
	mem, stack := memory.New(), memory.NewStack()
	id := uuid.New()
	memory.SetComposite[pathWrapper](mem, address.Address(0), pathWrapper(id))
	memory.SetComposite[Point3D](mem, address.Address(10), Point3D{X: 1, Y: 2, Z: 3})

	req, err := Build(MovePathPen, []plan.InMemory{
		plan.AddressLocator(address.Address(0)),
		plan.AddressLocator(address.Address(10)),
	}, mem, stack)
	if err != nil {
		t.Fatal(err)
	}
	mv, ok := req.(MovePathPenReq)
	if !ok {
		t.Fatalf("expected MovePathPenReq, got %T", req)
	}
	if mv.Path != id || mv.To.X != 1 || mv.To.Y != 2 || mv.To.Z != 3 {
		t.Fatalf("unexpected request: %+v", mv)
	}
}

func TestBuildClosePathFromStackPop(t *testing.T) {
	mem, stack := memory.New(), memory.NewStack()
	id := uuid.New()
	stack.Push(memory.Frame{primitive.UUIDValue(id)})

	req, err := Build(ClosePath, []plan.InMemory{plan.StackPopLocator()}, mem, stack)
	if err != nil {
		t.Fatal(err)
	}
	cp, ok := req.(ClosePathReq)
	if !ok || cp.Path != id {
		t.Fatalf("unexpected request: %+v (ok=%v)", req, ok)
	}
}

func TestBuildUnknownEndpoint(t *testing.T) {
	mem, stack := memory.New(), memory.NewStack()
	_, err := Build("NotReal", nil, mem, stack)
	if err == nil {
		t.Fatalf("expected error for unknown endpoint")
	}
}

func TestExtrudeRespRoundTrip(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New()}
	resp := ExtrudeResp{EntityFaceEdgeIDs: ids}
	mem := memory.New()
	memory.SetComposite[ExtrudeResp](mem, address.Address(0), resp)
	got, err := memory.GetComposite(mem, address.Address(0), DecodeExtrudeResp)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.EntityFaceEdgeIDs) != 2 || got.EntityFaceEdgeIDs[0] != ids[0] {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}

// pathWrapper adapts a bare uuid.UUID to the Value interface for the
// address-locator test above.
type pathWrapper uuid.UUID

func (p pathWrapper) IntoParts() []primitive.Primitive {
	return []primitive.Primitive{primitive.UUIDValue(uuid.UUID(p))}
}
