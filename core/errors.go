package core

import "strconv"

// ErrorCode int
type ErrorCode int

const (
	// ErrUnknown unkown
	ErrUnknown ErrorCode = 100000
	// ErrInvalidAccountKey not a base58 public key
	ErrInvalidAccountKey ErrorCode = 100001

	// ErrAccountNotFound no account at the key
	ErrAccountNotFound ErrorCode = 100100
	// ErrNotMarginfiAccount account data is not a marginfi account
	ErrNotMarginfiAccount ErrorCode = 100101
	// ErrBankNotFound a referenced bank does not exist
	ErrBankNotFound ErrorCode = 100102
	// ErrEvaluationFailed oracle or arithmetic failure while valuing positions
	ErrEvaluationFailed ErrorCode = 100103
)

func (e ErrorCode) String() string {
	return strconv.Itoa(int(e))
}

func (e ErrorCode) Error() string {
	return e.String()
}
