package trade

import (
	"strings"

	"github.com/iov-one/tradefin"
	"github.com/iov-one/tradefin/errors"
)

// role reports whether given party holds a role in the trade.
type role func(t *Trade, who weave.Address) bool

func isBuyer(t *Trade, who weave.Address) bool {
	return len(who) != 0 && t.Buyer.Equals(who)
}

func isSeller(t *Trade, who weave.Address) bool {
	return len(who) != 0 && t.Seller.Equals(who)
}

func isVerifier(t *Trade, who weave.Address) bool {
	return len(who) != 0 && t.Verifier.Equals(who)
}

// anyOf returns a role held by everyone who holds at least one of given
// roles.
func anyOf(roles ...role) role {
	return func(t *Trade, who weave.Address) bool {
		for _, r := range roles {
			if r(t, who) {
				return true
			}
		}
		return false
	}
}

// inState reports whether the trade is in one of given states.
func inState(t *Trade, states ...State) bool {
	for _, s := range states {
		if t.State == s {
			return true
		}
	}
	return false
}

// transition declares who can execute an operation on an existing trade
// and in which states.
type transition struct {
	role  role
	roles []string
	from  []State
}

func (tr transition) String() string {
	return strings.Join(tr.roles, " or ")
}

var transitions = map[string]transition{
	pathSubmitDocuments: {
		role:  isSeller,
		roles: []string{"seller"},
		from:  []State{StatePaymentHeld},
	},
	pathVerifyDocuments: {
		role:  isVerifier,
		roles: []string{"verifier"},
		from:  []State{StatePaymentHeld},
	},
	pathMarkShipped: {
		role:  isSeller,
		roles: []string{"seller"},
		from:  []State{StatePaymentHeld},
	},
	pathConfirmDelivery: {
		role:  isBuyer,
		roles: []string{"buyer"},
		from:  []State{StateShipped},
	},
	pathRaiseDispute: {
		role:  anyOf(isBuyer, isSeller),
		roles: []string{"buyer", "seller"},
		from:  []State{StatePaymentHeld, StateShipped},
	},
	pathResolveDispute: {
		role:  isVerifier,
		roles: []string{"verifier"},
		from:  []State{StateDisputed},
	},
	pathEmergencyRefund: {
		role:  isBuyer,
		roles: []string{"buyer"},
		from:  []State{StatePaymentHeld},
	},
}

// authorize returns the trade if the caller is allowed to execute the
// operation of given path on it. Checks are done in order: the trade must
// exist, the caller must hold the role, the trade must be in the right
// state.
//
// The trade entity is locked for the rest of the operation.
func authorize(ctx weave.Context, db weave.ReadOnlyKVStore, path string, id uint64, caller weave.Address) (*Trade, error) {
	tr, ok := transitions[path]
	if !ok {
		return nil, errors.Wrapf(errors.ErrHuman, "no transition declared for %s", path)
	}

	weave.Lock(ctx, LockKey(id))

	t, err := Get(db, id)
	if err != nil {
		return nil, err
	}
	if !tr.role(t, caller) {
		return nil, errors.Wrapf(errors.ErrUnauthorized, "%s requires the %s", path, tr)
	}
	if !inState(t, tr.from...) {
		return nil, errors.Wrapf(errors.ErrState, "%s not allowed for a trade in %s", path, t.State)
	}
	return t, nil
}
