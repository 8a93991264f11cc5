// Package migrations carries the ledger schema as embedded SQL, applied
// out-of-band in deployments and directly by the test harness.
package migrations

import "embed"

//go:embed *.sql
var Files embed.FS
