package main

import (
	"testing"

	"github.com/boundedmc/bmc/internal/bmcerr"
	"github.com/boundedmc/bmc/internal/driver"
	"github.com/boundedmc/bmc/internal/expr"
	"github.com/boundedmc/bmc/internal/gotoir"
	"github.com/boundedmc/bmc/internal/kinduction"
)

func TestExitCodeFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{bmcerr.New(bmcerr.KindIRLoad, "bad ir"), 6},
		{bmcerr.New(bmcerr.KindClaimSelection, "bad claim"), 7},
		{bmcerr.New(bmcerr.KindSolverError, "solver exploded"), 1},
		{bmcerr.New(bmcerr.KindTimeout, "too slow"), 1},
		{errPlain("unwrapped"), 1},
	}
	for _, c := range cases {
		if got := exitCodeFor(c.err); got != c.want {
			t.Errorf("exitCodeFor(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}

type errPlain string

func (e errPlain) Error() string { return string(e) }

func TestRoleFromString(t *testing.T) {
	cases := map[string]kinduction.Role{
		"base-case":         kinduction.RoleBase,
		"forward-condition": kinduction.RoleForward,
		"inductive-step":    kinduction.RoleInductive,
		"nonsense":          kinduction.RoleNone,
		"":                  kinduction.RoleNone,
	}
	for s, want := range cases {
		if got := roleFromString(s); got != want {
			t.Errorf("roleFromString(%q) = %s, want %s", s, got, want)
		}
	}
}

func TestRoleFromStringIsInverseOfRoleString(t *testing.T) {
	for _, role := range []kinduction.Role{kinduction.RoleBase, kinduction.RoleForward, kinduction.RoleInductive} {
		if got := roleFromString(role.String()); got != role {
			t.Errorf("roleFromString(%q) = %s, want %s", role.String(), got, role)
		}
	}
}

func TestConfigClaimIDs(t *testing.T) {
	c := &config{Claims: "main:3,helper:10"}
	ids, err := c.claimIDs()
	if err != nil {
		t.Fatalf("claimIDs: %v", err)
	}
	want := []gotoir.ClaimID{{Function: "main", LocationNumber: 3}, {Function: "helper", LocationNumber: 10}}
	if len(ids) != len(want) || ids[0] != want[0] || ids[1] != want[1] {
		t.Fatalf("claimIDs = %v, want %v", ids, want)
	}
}

func TestConfigClaimIDsEmpty(t *testing.T) {
	c := &config{}
	ids, err := c.claimIDs()
	if err != nil || ids != nil {
		t.Fatalf("claimIDs() = (%v, %v), want (nil, nil)", ids, err)
	}
}

func TestConfigClaimIDsRejectsMalformed(t *testing.T) {
	cases := []string{"main", "main:notanumber", ":3"}
	for _, s := range cases {
		c := &config{Claims: s}
		if _, err := c.claimIDs(); err == nil {
			t.Errorf("claimIDs(%q): expected an error", s)
		}
	}
}

func TestFormatInstruction(t *testing.T) {
	loc := gotoir.SourceLocation{Function: "main"}
	x := expr.NewSymbolExpr("x", expr.NewBVType(32, true))

	cases := []struct {
		instr gotoir.Instruction
		want  string
	}{
		{gotoir.NewAssign(loc, x, expr.NewConstantExpr32(1)), "ASSIGN x!0!0 := (const 1 32)"},
		{gotoir.NewReturn(loc, nil), "RETURN"},
		{gotoir.NewDecl(loc, "x", expr.NewBVType(32, true)), "DECL x : signed_bv[32]"},
	}
	for _, c := range cases {
		if got := formatInstruction(c.instr); got != c.want {
			t.Errorf("formatInstruction(%+v) = %q, want %q", c.instr, got, c.want)
		}
	}
}

func TestReportResult(t *testing.T) {
	cases := []struct {
		result *kinduction.Result
		want   int
	}{
		{&kinduction.Result{Outcome: driver.Successful}, 0},
		{&kinduction.Result{Outcome: driver.Failed}, 10},
		{&kinduction.Result{Outcome: driver.Unknown}, 1},
	}
	for _, c := range cases {
		if got := reportResult(c.result); got != c.want {
			t.Errorf("reportResult(%s) = %d, want %d", c.result.Outcome, got, c.want)
		}
	}
}
