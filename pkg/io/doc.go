// Package io reads JSON:API documents and writes transformed resources.
//
// # Reading
//
// [ReadDocument] decodes a document from a reader; [ImportDocument] opens a
// file first. Both accept any media type variant of JSON:API.
//
// # Writing
//
// A transformed resource graph may contain cycles (a post whose author lists
// the post). [WriteJSON] expands relationship fields inline and stops at
// cycles: a resource that is already being written further up the current
// path is emitted as its identifier only:
//
//	{
//	  "id": "1",
//	  "type": "posts",
//	  "author": {
//	    "id": "9",
//	    "type": "people",
//	    "posts": [{"id": "1", "type": "posts"}]
//	  }
//	}
//
// A resource reached by several paths is expanded once, at its first
// position in key order, and written as its identifier everywhere else.
// Primary resources are always expanded. Keys are sorted, so equal graphs
// produce equal bytes.
//
// The output mirrors the cardinality of the primary data: an object for a
// single resource, an array for a collection, null for null.
package io
