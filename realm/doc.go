// Package realm provides ready to use authc.Realm implementations:
//
//   - MemoryRealm: username/password accounts held in memory, passwords stored as bcrypt hashes
//   - BearerRealm: HMAC signed JWT bearer tokens
//
// Both realms also implement authz.Realm so the roles they know about can be
// used for authorization checks.
package realm
