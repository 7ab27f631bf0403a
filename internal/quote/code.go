package quote

import (
	"fmt"
	"regexp"

	"github.com/fengyix/stockmon/internal/core"
)

// validCode matches exchange-listed A-share codes: exactly 6 ASCII digits
var validCode = regexp.MustCompile(`^[0-9]{6}$`)

// ValidateCode checks a code before any network call is made with it.
func ValidateCode(code string) error {
	if code == "" {
		return core.WrapError(core.ErrInvalidCode, fmt.Errorf("code is empty"))
	}
	if !validCode.MatchString(code) {
		return core.WrapError(core.ErrInvalidCode, fmt.Errorf("%q is not 6 digits", code))
	}
	return nil
}

// SuffixFor derives the exchange suffix from the leading digit:
// 6/9 list on Shanghai, 0/2/3 on Shenzhen, anything else defaults to
// Shanghai.
func SuffixFor(code string) core.Exchange {
	if code == "" {
		return core.ExchangeShanghai
	}
	switch code[0] {
	case '6', '9':
		return core.ExchangeShanghai
	case '0', '2', '3':
		return core.ExchangeShenzhen
	default:
		return core.ExchangeShanghai
	}
}
