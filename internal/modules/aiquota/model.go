package aiquota

import "errors"

// ErrQuotaExhausted is returned when a user has no AI calls left this month.
var ErrQuotaExhausted = errors.New("ai quota exhausted")

// DefaultCalls is the monthly allowance used when the config does not override it.
const DefaultCalls = 50
