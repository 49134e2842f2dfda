package common

// Cookie names used by the HTTP boundary to deliver session tokens.
const (
	AccessTokenCookieName  = "accessToken"
	RefreshTokenCookieName = "refreshToken"
)
