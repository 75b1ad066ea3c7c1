// Package pipeline drives the fetch-and-normalize run: discover the WGS
// projects for a taxid selection, retrieve each project's compressed
// archives over FTP, normalize them into one output FASTA file, and record
// completed projects in a durable ledger so a killed run can resume.
//
// # Scheduling
//
// Projects are processed strictly sequentially, one file at a time. The
// only concurrent activity is the transfer keepalive inside a Session,
// scoped to one in-flight file. The ledger and output handles are owned
// and mutated by the orchestrator's single thread of control.
//
// # Durability
//
// A project id is appended to the ledger, and fsynced, only after all of
// its archives are retrieved and (unless in download-only mode) written to
// the output. A crash at any point leaves ledger and output consistent up
// to the last completed project.
package pipeline
