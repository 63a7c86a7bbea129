// Package jwtauth is a net/http middleware that issues, refreshes and checks
// HMAC signed bearer tokens.
//
// The middleware owns three flows:
//
//   - POST to the issuance endpoint (default /api-token-auth) with an
//     identification and a password: Lookup, then Verify, then CreateToken,
//     and the resulting claims are signed and returned with the token added.
//   - POST to the refresh endpoint (default /api-token-refresh) with a token:
//     the token is verified (optionally accepting one that expired less than
//     RefreshLeeway ago), RefreshLookup re-resolves the identity, and a fresh
//     token is issued the same way.
//   - Every other request must carry "Authorization: Bearer <token>". Valid
//     claims are attached to the request context, see ClaimsFromContext.
//
// Storage, password hashing and anything else about credentials stays with
// the caller, plugged in through Lookup, Verifier, TokenCreator and
// RefreshLookup. Each failing request goes to one of three ErrorHandlers; the
// defaults answer 401 with no body.
//
//	auth, err := jwtauth.New(&jwtauth.Options{
//		Secret: os.Getenv("TOKEN_SECRET"),
//		Lookup: jwtauth.LookupFunc(func(r *http.Request, username string) (jwtauth.Record, error) {
//			return users.ByName(r.Context(), username)
//		}),
//		Verify: jwtauth.VerifyFunc(func(r *http.Request, password string, rec jwtauth.Record) (bool, error) {
//			return rec.(*User).CheckPassword(password), nil
//		}),
//		RefreshLeeway: 30 * time.Second,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	http.ListenAndServe(":8080", auth.Handler(app))
package jwtauth
