// Package session manages opaque bearer-token sessions: issuing, sliding
// expiry, periodic rotation and terminal revocation.
//
// A Manager is stateless between calls. Records live in a Store, keyed by a
// one-way hash of the token so a leaked store cannot be replayed. DocStore
// adapts any docstore backend (memory, MongoDB, Redis, PostgreSQL) and runs
// rotation as a single transaction: the predecessor is revoked with reason
// "rotated" and linked to its successor only if it is still live, so two
// concurrent rotations never both succeed.
//
// # Lifecycle
//
//	created -> touched* -> rotated (successor created) -> revoked
//
// Revocation is terminal. Unknown, revoked and expired sessions all surface
// as ErrSessionNotFound. Expiry is lazy: the first Touch or Rotate at or past
// ExpiresAt revokes the record with reason "expired".
//
// # Usage
//
//	docs := docstore.NewMemoryStore()
//	manager := session.New(session.NewDocStore(docs))
//
//	token, rec, err := manager.Create(ctx, userID, session.MetadataFromRequest(r))
//	transport.SetToken(w, token, manager.Config().TTL)
//
//	rot, err := manager.Rotate(ctx, token, session.MetadataFromRequest(r))
//	if rot.Rotated {
//	    transport.SetToken(w, rot.Token, manager.Config().TTL)
//	}
//
// # HTTP
//
// Transports move the token: CookieTransport (encrypted httpOnly cookie),
// HeaderTransport (Authorization: Bearer) and CompositeTransport. The
// Authenticate middleware puts the validated Record into the request context;
// RequireSession and RequireRole guard handlers with 401 and 403.
package session
