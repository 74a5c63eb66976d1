// Package cli contains the Cobra commands of the sfdb binary.
//
// Every command operates on one database resolved from, in increasing
// priority, flag defaults, the entry selected with --db from the --config
// file, and explicitly set flags.
package cli
