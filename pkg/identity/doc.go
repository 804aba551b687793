// Package identity proves who a caller is before a session is issued.
//
// A Verifier turns the token submitted to POST /session into an Identity.
// JWTVerifier validates a signed ID token locally (HMAC, RSA or ECDSA keys,
// issuer and audience checks). UserInfoVerifier treats the token as an OAuth2
// access token and asks the provider's userinfo endpoint. NewFromConfig picks
// one from the environment.
package identity
