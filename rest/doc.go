// Package rest binds ordinary Go method sets to HTTP, in both directions,
// without code generation.
//
// # Contracts
//
// A [Contract] is a data-first description of a service: one [Operation]
// per method, each carrying its declared [Param]s, return type, and any
// explicit HTTP method/path override. Go cannot recover parameter names
// from a plain interface type through reflection alone, so a Contract is
// built once, by hand, alongside the Go type it describes, and handed to
// both binders.
//
// # Name to HTTP Mapping
//
// [DeriveRoute] turns an operation identifier into an HTTP verb and path
// using [Style] to split and rejoin the identifier's words, and a small
// table of recognized verb prefixes (get/query, put/set, update/patch,
// add/create/post, remove/erase/delete) to pick the method when no
// explicit override is given.
//
// # Server Binder
//
// [Server.Mount] walks a Contract and registers one route per operation on
// a [Router] (an *http.ServeMux satisfies this directly). At request time
// it extracts parameters per the legacy-id/path/body rules, invokes the
// bound method by reflection, and writes back the result or a mapped
// error. Operations returning a sub-[Contract] are mounted recursively
// under their own path, letting one Contract describe a resource tree.
//
// # Client Binder
//
// [Client.Bind] does the mirror image: given a pointer to a struct whose
// fields are named after each Operation's Go method, it fills the
// func-typed fields with reflect.MakeFunc closures that build the request,
// call out over HTTP, and decode the response — and fills
// pointer-to-struct fields for sub-contracts with a recursively bound
// child client.
//
// # Codecs
//
// Both binders default to JSON ([JSON]) but can be pointed at any other
// registered [Codec], such as [CBOR].
package rest
