// Package client fetches JSON:API documents over HTTP.
//
// # Overview
//
// A [Client] is bound to one API: a base URL built from Options.URL,
// Options.Prefix and Options.Version. Every request carries the bearer
// token and the JSON:API media type:
//
//	c, err := client.New(client.Options{
//	    URL:     "https://cms.example.com",
//	    Prefix:  "/api",
//	    Version: "v1",
//	    Token:   token,
//	})
//
// # Queries
//
// [Client.Find], [Client.FindOne] and [Client.Get] return a [Query], a builder
// for the JSON:API query parameters:
//
//	doc, err := c.Find("posts").
//	    Include("author", "comments.author").
//	    Fields("people", "name").
//	    Filter("published", "true").
//	    Sort("-createdAt").
//	    Page(1, 20).
//	    Fetch(ctx)
//
// [Client.FindRelated] and [Client.FindRelationship] follow the related and
// self links of a relationship. They return nil when the server did not
// provide the link.
//
// # Transport
//
// Responses are cached as raw bytes keyed by URL (see package cache).
// Transient failures (network errors, 5xx, 429) are retried with exponential
// backoff; a Retry-After header on a 429 is honoured. Failures map to
// structured codes from package errors, with the server's errors array
// included in the message.
package client
