package domain

import "errors"

// ErrTokenNotFound is returned by RefreshTokenRepository.Rotate when no live
// row matches the presented secret. Usecases translate it into the typed
// INVALID_REFRESH_TOKEN rejection.
var ErrTokenNotFound = errors.New("refresh token not found")
