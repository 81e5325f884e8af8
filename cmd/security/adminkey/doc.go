// Package adminkey hashes and verifies the shared admin API key.
//
// Session issuance and ranking reports are admin operations. The server holds
// only an Argon2id hash of the key (PHC-like string, same format as
// `$argon2id$v=19$m=...,t=...,p=...$salt$hash`) and compares presented keys
// against it. Hash strings are treated as untrusted input: decoding is strict
// and verification refuses parameters far above the configured cost.
package adminkey
