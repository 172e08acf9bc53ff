// Package client is a Go client for the docset HTTP API.
//
// A query names a model, narrows it with a selector, named scopes and
// options, and finishes with one operation:
//
//	c, _ := client.New("http://localhost:8080", client.WithAPIKey(key))
//	n, _ := c.Model("users").Scope("adults").Where(map[string]any{"status": "active"}).Count(ctx)
//	docs, _ := c.Model("users").Sort("age", "desc").Limit(5).All(ctx)
//	ages, _ := c.Model("users").Pluck(ctx, "age")
//
// Errors reported by the server unwrap to the package sentinels:
//
//	if errors.Is(err, client.ErrModelNotFound) { ... }
package client
