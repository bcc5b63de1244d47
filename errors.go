package amortize

import (
	"errors"
	"fmt"
)

var ErrInvalidArgument = errors.New("invalid argument")

var (
	ErrInvalidDate      = fmt.Errorf("%w: date must be a canonical YYYYMMDD string", ErrInvalidArgument)
	ErrInvalidTerm      = fmt.Errorf("%w: term must be positive", ErrInvalidArgument)
	ErrInvalidPrincipal = fmt.Errorf("%w: principal must be positive", ErrInvalidArgument)
	ErrInvalidRate      = fmt.Errorf("%w: annual rate must not be negative", ErrInvalidArgument)
)

var (
	ErrNotCalculated        = errors.New("schedule not calculated")
	ErrOutOfOrder           = errors.New("prepayment date precedes the previous prepayment")
	ErrUnsupportedRepayType = errors.New("unsupported repay type")
	ErrUnsupportedPrepay    = errors.New("unsupported prepay strategy")
	ErrPaymentBelowInterest = errors.New("fixed payment does not cover periodic interest")
)
