// Package apibind turns a declarative table of HTTP operation definitions
// into bound, callable operations over a shared transport.
//
// A Table maps operation names to definitions in one of three equivalent
// shapes: a bare URL string (method defaults to GET), a [method, url] pair,
// or an explicit Definition. New validates the whole table eagerly, so a
// malformed entry fails at startup rather than on first request:
//
//	mod, err := apibind.New(apibind.Table{
//		"listTags":  "/tags",
//		"getTag":    [2]string{"get", "/tags/:id"},
//		"updateTag": apibind.Definition{Method: "PUT", URL: "/tags/:id"},
//	}, apibind.WithBaseURL("https://api.example.com"))
//
// Operations with :name path placeholders are invoked through CallWithParams;
// operations without placeholders through Call. For POST and PUT the payload
// is sent as the JSON request body; for every other method it is serialized
// as a query string and appended to the URL.
//
//	resp, err := mod.MustOperation("getTag").CallWithParams(ctx,
//		apibind.Params{"id": 7}, nil, nil)
//
// Start and StartWithParams return a *Pending immediately for callers that
// want to issue several requests concurrently and collect results later.
// Each call builds its own request configuration; in-flight calls share no
// mutable state and complete in no particular order.
package apibind
