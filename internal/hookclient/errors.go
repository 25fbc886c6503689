package hookclient

import (
	"fmt"

	"github.com/Belloabraham121/privbatch/internal/domain"
)

// selectorTable maps a 4-byte revert selector to a typed error kind,
// spec §4.1/§6. Entries beyond the three the spec fixes exactly are
// application errors this repository's own hook-contract wiring names;
// any selector not present here decodes to Unknown(selector).
var selectorTable = map[[4]byte]domain.ErrorKind{
	{0xc0, 0x67, 0x89, 0xfa}: domain.ErrInvalidCommitment,
	{0x56, 0xa2, 0x70, 0xff}: domain.ErrSlippageExceededForUser,
	{0x52, 0x12, 0xcb, 0xa1}: domain.ErrCurrencyNotSettled,
	{0x8f, 0x4e, 0xa1, 0x0a}: domain.ErrDeadlineExpiredOnChain,
	{0x3a, 0x81, 0x1c, 0x27}: domain.ErrInsufficientCommitments,
	{0x9e, 0x87, 0xfa, 0xc8}: domain.ErrBatchConditionsNotMet,
	{0x0c, 0x76, 0x2f, 0x5b}: domain.ErrInvalidNonce,
}

// DecodeError maps a revert selector to a typed *domain.CoreError.
// Unknown selectors decode to ErrUnknownSelector, carrying the raw hex
// so callers can still log it.
func DecodeError(selector [4]byte) *domain.CoreError {
	if kind, ok := selectorTable[selector]; ok {
		return domain.NewError(kind, fmt.Sprintf("hook contract reverted: %s", kind))
	}
	return domain.NewError(domain.ErrUnknownSelector, fmt.Sprintf("unknown selector 0x%x", selector))
}
