package domain

// WalletSession is the process-wide view of the external signer. At most one
// session exists; the wallet connector is its single writer, every other
// component treats it as read-only.
type WalletSession struct {
	// Address is the connected signer's public identifier (0x-prefixed hex),
	// or empty when disconnected.
	Address string
}

// Connected is derived from address presence; there is no separate flag to
// drift out of sync.
func (s WalletSession) Connected() bool {
	return s.Address != ""
}
