package trade

import (
	"testing"

	"github.com/iov-one/tradefin"
	"github.com/iov-one/tradefin/weavetest"
)

func TestRolePredicates(t *testing.T) {
	buyer := weavetest.NewCondition().Address()
	seller := weavetest.NewCondition().Address()
	verifier := weavetest.NewCondition().Address()
	stranger := weavetest.NewCondition().Address()

	tr := &Trade{Buyer: buyer, Seller: seller, Verifier: verifier}

	cases := map[string]struct {
		role role
		who  weave.Address
		want bool
	}{
		"buyer is buyer":              {role: isBuyer, who: buyer, want: true},
		"seller is not buyer":         {role: isBuyer, who: seller, want: false},
		"seller is seller":            {role: isSeller, who: seller, want: true},
		"verifier is verifier":        {role: isVerifier, who: verifier, want: true},
		"buyer is not verifier":       {role: isVerifier, who: buyer, want: false},
		"stranger holds no role":      {role: anyOf(isBuyer, isSeller, isVerifier), who: stranger, want: false},
		"empty caller holds no role":  {role: anyOf(isBuyer, isSeller, isVerifier), who: nil, want: false},
		"buyer matches any of":        {role: anyOf(isBuyer, isSeller), who: buyer, want: true},
		"seller matches any of":       {role: anyOf(isBuyer, isSeller), who: seller, want: true},
		"verifier does not match any": {role: anyOf(isBuyer, isSeller), who: verifier, want: false},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if got := tc.role(tr, tc.who); got != tc.want {
				t.Fatalf("want %v, got %v", tc.want, got)
			}
		})
	}
}

func TestEmptyPartyNeverMatches(t *testing.T) {
	// A trade with missing parties must not grant a role to a missing caller.
	tr := &Trade{}
	for name, r := range map[string]role{"buyer": isBuyer, "seller": isSeller, "verifier": isVerifier} {
		if r(tr, nil) || r(tr, weave.Address{}) {
			t.Errorf("empty caller granted %s role", name)
		}
	}
}

func TestInState(t *testing.T) {
	tr := &Trade{State: StateShipped}
	if !inState(tr, StatePaymentHeld, StateShipped) {
		t.Fatal("shipped trade not matched")
	}
	if inState(tr, StatePaymentHeld) {
		t.Fatal("shipped trade matched payment held")
	}
	if inState(tr) {
		t.Fatal("no state given must never match")
	}
}

func TestTransitionsNeverLeaveTerminalStates(t *testing.T) {
	for path, tr := range transitions {
		for _, s := range tr.from {
			if s.IsTerminal() {
				t.Errorf("%s starts from terminal state %s", path, s)
			}
			if s == StateDelivered {
				t.Errorf("%s starts from transient state %s", path, s)
			}
		}
		if len(tr.roles) == 0 {
			t.Errorf("%s declares no role", path)
		}
	}
}
