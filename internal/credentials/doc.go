// Package credentials builds the identifier -> secret map that inject pushes
// to the receiving service.
//
// Identifiers are read one per line from a local file. Each distinct
// identifier becomes one SecretMap entry, in file order. Entries without a
// secret are filled by asking the operator through a Prompter, which must
// not echo what is typed. Secrets never appear in logs; Fingerprint gives a
// short digest that can be compared against the receiver's output instead.
package credentials
