package accounts

import "errors"

// ErrStore wraps database failures so callers can distinguish backend
// trouble from a simple missing record.
var ErrStore = errors.New("accounts: store operation failed")
