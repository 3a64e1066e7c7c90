package kinduction

import "testing"

func TestRecordEncodeDecodeRoundTrip(t *testing.T) {
	cases := []Record{
		{Step: RoleBase, Finished: false, Result: VerificationFailed, K: 1},
		{Step: RoleForward, Finished: false, Result: VerificationSuccessful, K: 2},
		{Step: RoleInductive, Finished: true, Result: 0, K: 0},
		{Step: RoleBase, Finished: false, Result: VerificationInvalid, K: 4294967295},
	}
	for _, want := range cases {
		enc := want.encode()
		if len(enc) != recordSize {
			t.Fatalf("expected a %d-byte record, got %d", recordSize, len(enc))
		}
		got, err := decodeRecord(enc[:])
		if err != nil {
			t.Fatalf("decodeRecord: %v", err)
		}
		if got != want {
			t.Fatalf("round trip mismatch: want %+v, got %+v", want, got)
		}
	}
}

func TestDecodeRecordRejectsShortInput(t *testing.T) {
	if _, err := decodeRecord(make([]byte, recordSize-1)); err == nil {
		t.Fatalf("expected an error decoding a short buffer")
	}
}

func TestRoleString(t *testing.T) {
	cases := map[Role]string{
		RoleNone:      "none",
		RoleBase:      "base-case",
		RoleForward:   "forward-condition",
		RoleInductive: "inductive-step",
	}
	for role, want := range cases {
		if got := role.String(); got != want {
			t.Fatalf("Role(%d).String() = %q, want %q", role, got, want)
		}
	}
}
