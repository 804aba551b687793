// Package cookie sets and reads HTTP cookies with integrity and
// confidentiality.
//
// A Manager holds one or more secrets of at least 32 characters. The first
// secret writes, all of them read, so secrets can be rotated without logging
// everybody out. Values come in three flavours:
//
//   - Set/Get: plain values.
//   - SetSigned/GetSigned: keyed BLAKE2b-256 MAC, readable by the client.
//   - SetEncrypted/GetEncrypted: XChaCha20-Poly1305, opaque to the client.
//
// Signed and encrypted values are bound to the cookie name, so a value
// issued under one name is rejected under another.
//
// Defaults are Path=/, HttpOnly and SameSite=Lax; Delete expires a cookie
// with the same attributes.
//
//	mgr, err := cookie.NewFromConfig(cfg)
//	_ = mgr.SetEncrypted(w, "sid", token, cookie.WithMaxAge(ttlSeconds))
//	token, err := mgr.GetEncrypted(r, "sid")
package cookie
