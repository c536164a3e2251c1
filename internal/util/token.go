package util

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrBadToken = errors.New("malformed action token")

// TokenArgs returns the underscore-separated parts of data that follow prefix.
func TokenArgs(data, prefix string) ([]string, error) {
	if !strings.HasPrefix(data, prefix) {
		return nil, fmt.Errorf("%w: %q has no prefix %q", ErrBadToken, data, prefix)
	}
	rest := strings.TrimPrefix(data, prefix)
	if rest == "" {
		return nil, fmt.Errorf("%w: %q has no arguments", ErrBadToken, data)
	}
	return strings.Split(rest, "_"), nil
}

// TokenID parses a single positive numeric id that follows prefix.
func TokenID(data, prefix string) (uint, error) {
	args, err := TokenArgs(data, prefix)
	if err != nil {
		return 0, err
	}
	if len(args) != 1 {
		return 0, fmt.Errorf("%w: %q: want one id", ErrBadToken, data)
	}
	return ParseID(args[0])
}

func ParseID(s string) (uint, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("%w: bad id %q", ErrBadToken, s)
	}
	return uint(v), nil
}

func Token(prefix string, parts ...any) string {
	var b strings.Builder
	b.WriteString(prefix)
	for i, p := range parts {
		if i > 0 {
			b.WriteByte('_')
		}
		fmt.Fprint(&b, p)
	}
	return b.String()
}
