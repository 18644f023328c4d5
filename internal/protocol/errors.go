package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Action layer.
	ErrBadRequest   = "E_BAD_REQUEST"
	ErrCapacity     = "E_CAPACITY"
	ErrNotFound     = "E_NOT_FOUND"
	ErrCooldown     = "E_COOLDOWN"
	ErrPrecondition = "E_PRECONDITION"
	ErrNoFunds      = "E_NO_FUNDS"
	ErrWilted       = "E_WILTED"
	ErrInternal     = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrBadRequest:      {},
	ErrCapacity:        {},
	ErrNotFound:        {},
	ErrCooldown:        {},
	ErrPrecondition:    {},
	ErrNoFunds:         {},
	ErrWilted:          {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
