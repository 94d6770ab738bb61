// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command depgraph builds a lexical dependency graph of a source tree.
//
// Usage:
//
//	depgraph analyze [path]
//	depgraph analyze ./repo --json --out graph.json
//	depgraph analyze --languages rust,python --strict --save
//	depgraph languages
//	depgraph runs list
//	depgraph runs show 3f2a
//	depgraph runs diff 3f2a 9bc1
//
// Exit codes:
//
//	0  success
//	1  partial result: some files failed or the run stopped early
//	2  invalid invocation or fatal error
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
