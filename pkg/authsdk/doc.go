/*
Package authsdk is a small client for a tokengate server.

# Overview

A Client talks to the public endpoints: it trades a username and password
for a token, refreshes tokens and calls the protected endpoints with one.

	client := authsdk.NewClient("http://localhost:8080")

	tok, err := client.ObtainToken(ctx, "alice", "correct horse")
	me, err := client.Me(ctx, tok.Token)

A Session keeps the current token and refreshes it before it expires, so
long-running callers do not have to track expiry themselves:

	session, err := client.Login(ctx, "alice", "correct horse")
	me, err := session.Me(ctx)

# Errors

Any non-2xx response comes back as a *StatusError carrying the status code
and, when the server sent one, its {"error", "error_description"} body:

	var se *authsdk.StatusError
	if errors.As(err, &se) && se.IsUnauthorized() {
		// log in again
	}

The issuance and refresh endpoints answer failures with a bare 401, so the
error code is empty for those.
*/
package authsdk
