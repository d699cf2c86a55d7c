package domain

import "golang.org/x/oauth2"

// TokenUpdateFunc persists a rotated OAuth token for the tenant whose
// credential produced it.
type TokenUpdateFunc func(token *oauth2.Token) error
