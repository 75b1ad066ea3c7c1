// Package ftp manages stateful transfer sessions against the NCBI archive.
//
// A Session is scoped to one WGS project: Dial connects, logs in
// anonymously, changes into the project's sharded directory and returns the
// remote listing. Retrieve streams one file in binary mode to a writer
// while sending periodic NOOPs on the control connection so the server
// does not time out the session during large transfers.
//
// # Failure semantics
//
// Every network fault during Dial or Retrieve surfaces as a plain error;
// classification and retry happen at the call site. Close tries a graceful
// QUIT first and falls back to dropping the connection, and either outcome
// is safe to ignore.
package ftp
