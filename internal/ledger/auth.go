package ledger

// Invocation names one contract call with its exact arguments.
type Invocation struct {
	Contract Address
	Method   string
	Args     []Val
}

// Matches reports whether two invocations are identical, arguments included.
func (i Invocation) Matches(o Invocation) bool {
	return i.Contract == o.Contract && i.Method == o.Method && EqualArgs(i.Args, o.Args)
}

// Authorization is a signed-off statement by Address that it approves Root and
// the listed sub-invocations made on its behalf.
type Authorization struct {
	Address        Address
	Root           Invocation
	SubInvocations []Invocation
}

// authSlot identifies one invocation of one authorization entry of a unit.
type authSlot struct {
	entry int
	sub   int // rootSlot for the root invocation
}

const rootSlot = -1

func (u *unit) consumedSlot(s authSlot) bool {
	for _, c := range u.consumed {
		if c == s {
			return true
		}
	}
	return false
}

// claimAuth finds the unused invocation of entry that approves inv called by
// invoker. The root must be claimed before any of its sub-invocations, and a
// sub-invocation must be called directly by the root contract. Every
// invocation approves at most one call per unit.
func (u *unit) claimAuth(entry int, invoker Address, inv Invocation) (authSlot, bool) {
	a := u.auths[entry]
	root := authSlot{entry: entry, sub: rootSlot}
	if !u.consumedSlot(root) {
		if a.Root.Matches(inv) {
			return root, true
		}
		return authSlot{}, false
	}
	if invoker != a.Root.Contract {
		return authSlot{}, false
	}
	for i, sub := range a.SubInvocations {
		s := authSlot{entry: entry, sub: i}
		if !u.consumedSlot(s) && sub.Matches(inv) {
			return s, true
		}
	}
	return authSlot{}, false
}

// AuthorizedInvocation records an authorization check that passed.
type AuthorizedInvocation struct {
	Address    Address
	Invocation Invocation
}
