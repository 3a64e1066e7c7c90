package gotoir_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/boundedmc/bmc/internal/expr"
	"github.com/boundedmc/bmc/internal/gotoir"
)

func mkLoop() *gotoir.Function {
	// 0: x := 0
	// 1: GOTO 3 if x >= 10
	// 2: x := x + 1
	// 3: RETURN
	// No GOTO back to 1 is built, so this body contains no loop.
	x := expr.NewSymbolExpr("x", expr.NewBVType(32, false))
	loc := gotoir.SourceLocation{Function: "loop"}
	return &gotoir.Function{
		Name: "loop",
		Body: []gotoir.Instruction{
			gotoir.NewAssign(loc, x, expr.NewConstantExpr32(0)),
			gotoir.NewGoto(loc, expr.NewBinaryExpr(expr.UGE, x, expr.NewConstantExpr32(10)), 3),
			gotoir.NewAssign(loc, x, expr.NewBinaryExpr(expr.ADD, x, expr.NewConstantExpr32(1))),
			gotoir.NewReturn(loc, nil),
		},
	}
}

func TestNumber_LocationNumbers(t *testing.T) {
	fn := mkLoop()
	gotoir.Number(fn)
	for i, instr := range fn.Body {
		if instr.LocationNumber != i {
			t.Fatalf("instruction %d: LocationNumber=%d", i, instr.LocationNumber)
		}
	}
}

func TestProgram_MainLookup(t *testing.T) {
	p := gotoir.NewProgram()
	if _, err := p.Main(); err == nil {
		t.Fatalf("expected error for missing main")
	}
	p.AddFunction(&gotoir.Function{Name: "main", Body: []gotoir.Instruction{
		gotoir.NewReturn(gotoir.SourceLocation{}, nil),
	}})
	if _, err := p.Main(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestProgram_SelectClaims(t *testing.T) {
	p := gotoir.NewProgram()
	loc := gotoir.SourceLocation{Function: "main"}
	p.AddFunction(&gotoir.Function{Name: "main", Body: []gotoir.Instruction{
		gotoir.NewAssert(loc, expr.NewBoolConstantExpr(true), "claim A"),
		gotoir.NewAssert(loc, expr.NewBoolConstantExpr(false), "claim B"),
	}})

	claims := p.Claims()
	if len(claims) != 2 {
		t.Fatalf("expected 2 claims, got %d", len(claims))
	}

	if err := p.SelectClaims(claims[0]); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	main := p.Functions["main"]
	if main.Body[0].Kind != gotoir.Assert {
		t.Fatalf("selected claim should remain an ASSERT")
	}
	if main.Body[1].Kind != gotoir.Assume {
		t.Fatalf("unselected claim should be downgraded to ASSUME, got %s", main.Body[1].Kind)
	}
}

func TestSelectClaims_UnknownClaim(t *testing.T) {
	p := gotoir.NewProgram()
	p.AddFunction(&gotoir.Function{Name: "main", Body: []gotoir.Instruction{
		gotoir.NewAssert(gotoir.SourceLocation{}, expr.NewBoolConstantExpr(true), "only claim"),
	}})
	err := p.SelectClaims(gotoir.ClaimID{Function: "main", LocationNumber: 99})
	if err == nil {
		t.Fatalf("expected error for unknown claim id")
	}
}

func TestLoad_RoundTripsSimpleProgram(t *testing.T) {
	var buf bytes.Buffer

	writeByte := func(b byte) { buf.WriteByte(b) }
	writeU32 := func(v uint32) {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], v)
		buf.Write(b[:])
	}
	writeU64 := func(v uint64) {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], v)
		buf.Write(b[:])
	}
	writeString := func(s string) {
		writeU32(uint32(len(s)))
		buf.WriteString(s)
	}

	// one function "main" with a single RETURN of the constant 7(32-bit).
	writeByte(1) // wireNumFunction
	writeString("main")
	writeU32(0) // no parameters
	writeU32(1) // one instruction

	writeByte(6) // Return (Skip=0,Assign=1,Assume=2,Assert=3,Goto=4,FunctionCall=5,Return=6)
	writeString("main.c")
	writeU32(1)
	writeString("main")
	writeByte(1) // hasValue
	writeByte(0) // constant expr tag
	writeU32(32)
	writeU64(7)

	writeByte(0) // wireEOF

	p, err := gotoir.Load(&buf)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	main, err := p.Main()
	if err != nil {
		t.Fatalf("Main: %v", err)
	}
	if len(main.Body) != 1 || main.Body[0].Kind != gotoir.Return {
		t.Fatalf("unexpected decoded body: %+v", main.Body)
	}
	want := expr.NewConstantExpr(7, 32)
	if diff := expr.CompareExpr(main.Body[0].Value, want); diff != 0 {
		t.Fatalf("decoded return value mismatch: got %s want %s", main.Body[0].Value, want)
	}
}
