package admin

import "errors"

var ErrInvalidUser = errors.New("invalid user")
