// Package auth provides password based session authentication: bcrypt
// credential hashing, HS256 session tokens delivered as an HTTP-only cookie,
// and a go-router gate that resolves a request's token back into a user.
//
// Sessions:
//   - Auther.Signup and Auther.Login return a Session holding the user view,
//     the signed token and the CookieDirective the transport should set.
//   - Tokens are stateless. Logout only overwrites the cookie, so a token
//     replayed through the Authorization header stays valid until it expires.
//
// Gate:
//   - RouteAuthenticator.ProtectedRoute reads the token from the session
//     cookie first and then from "Authorization: Bearer". The
//     SessionResolver verifies it and loads the user. The resulting
//     *AuthContext is stored in the request locals and in the request context.
//
// Activity sinks:
//   - ActivitySink receives signup, login and logout events. Sinks run
//     best-effort (errors are logged) so they never block authentication.
package auth
