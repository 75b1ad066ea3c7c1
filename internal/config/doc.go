// Package config defines configuration structures for the taxwgs CLI.
//
// Configuration can be provided via:
//   - Command-line flags
//   - Environment variables (TAXWGS_ prefix)
//   - YAML configuration file
//
// # Structure
//
//	type Config struct {
//	    Include      string
//	    Exclude      string
//	    DownloadOnly bool
//	    Force        bool
//	    Resume       bool
//	    Reverse      bool
//	    Verbose      bool
//	    Host         string
//	    Timeout      time.Duration
//	    Keepalive    time.Duration
//	    StoreURL     string
//	}
//
// The output FASTA and ledger file names are derived from the taxid
// selection, so runs against different selections never collide.
package config
