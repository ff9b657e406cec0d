// Package talknote is a client for the Talknote workspace-messaging API.
//
// Every operation returns a [Result]. Transport failures and undecodable
// responses are reported through [Result.Err] rather than a second return
// value, so callers handle network, protocol and parse failures on a single
// branch:
//
//	c := talknote.New(token, talknote.Options{})
//	res := c.DMThreads(ctx)
//	if !res.Ok() {
//	    return res.Err()
//	}
//	var threads domain.ThreadsData
//	_ = res.Decode(&threads)
//
// A response whose embedded status is not 1 is still a successful Result; use
// [Result.RemoteOK] to check the API's own verdict.
//
// The HTTP method and path of each operation come from a table of observed
// server behaviour (see [Endpoints]), which in several places differs from
// the published API documentation.
package talknote
