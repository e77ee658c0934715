package delegation

// GrantedEvent is published after a delegation commits, RevokedEvent after a
// revocation commits. Lazy expiry produces no event.
type GrantedEvent struct {
	Result *Delegation
}

type RevokedEvent struct {
	Result *Delegation
}
