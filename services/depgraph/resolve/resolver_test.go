// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package resolve

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResolver(t *testing.T, files ...string) *Resolver {
	t.Helper()
	r, err := New(NewIndex(files))
	require.NoError(t, err)
	return r
}

func TestNew_NilIndex(t *testing.T) {
	r, err := New(nil)
	assert.Nil(t, r)
	assert.ErrorIs(t, err, ErrNilIndex)
}

func TestResolve(t *testing.T) {
	r := newResolver(t,
		"main.rs",
		"a/index.rs",
		"a/util.rs",
		"src/app.ts",
		"src/util.ts",
		"src/util.js",
		"src/data.json",
		"src/lib/index.ts",
		"pkg/main.py",
		"pkg/util.py",
		"pkg/sub/__init__.py",
		"notes/a.txt",
		"notes/b.txt",
	)

	tests := []struct {
		name     string
		raw      string
		importer string
		want     Outcome
	}{
		{"sibling with extension probing", "./util", "a/index.rs", Resolved("a/util.rs")},
		{"missing sibling", "./missing", "a/index.rs", Unresolved()},
		{"directory falls back to index", "./a", "main.rs", Resolved("a/index.rs")},
		{"ts preferred over js", "./util", "src/app.ts", Resolved("src/util.ts")},
		{"verbatim extension", "./data.json", "src/app.ts", Resolved("src/data.json")},
		{"trailing slash is directory only", "./lib/", "src/app.ts", Resolved("src/lib/index.ts")},
		{"bare package", "react", "src/app.ts", Unresolved()},
		{"scoped package", "@scope/pkg", "src/app.ts", Unresolved()},
		{"python sibling", ".util", "pkg/main.py", Resolved("pkg/util.py")},
		{"python package", ".sub", "pkg/main.py", Resolved("pkg/sub/__init__.py")},
		{"python absolute", "os.path", "pkg/main.py", Unresolved()},
		{"rust item path", "self::util::Parser", "a/index.rs", Resolved("a/util.rs")},
		{"rust group import", "self::util::{Parser, Lexer}", "a/index.rs", Resolved("a/util.rs")},
		{"rust crate path", "crate::a::util", "main.rs", Unresolved()},
		{"escapes root", "../../x", "a/index.rs", Unresolved()},
		{"opaque importer with extension", "./b.txt", "notes/a.txt", Resolved("notes/b.txt")},
		{"opaque importer without extension", "./b", "notes/a.txt", Unresolved()},
		{"empty reference", "  ", "main.rs", Unresolved()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Resolve(tt.raw, tt.importer))
		})
	}
}

func TestResolve_DirectoryStemsFollowLanguage(t *testing.T) {
	r := newResolver(t,
		"app/main.py",
		"app/views/__init__.py",
		"app/views/index.py",
		"app/views/mod.py",
		"app/models/index.py",
		"web/app.ts",
		"web/dir.ts",
		"web/dir/index.ts",
		"web/widgets/mod.ts",
		"crate/main.rs",
		"crate/net/mod.rs",
		"crate/db/lib.rs",
	)

	tests := []struct {
		name     string
		raw      string
		importer string
		want     Outcome
	}{
		{"python package binds to __init__", ".views", "app/main.py", Resolved("app/views/__init__.py")},
		{"python ignores index module", ".models", "app/main.py", Unresolved()},
		{"file beats directory", "./dir", "web/app.ts", Resolved("web/dir.ts")},
		{"ts directory with trailing slash", "./dir/", "web/app.ts", Resolved("web/dir/index.ts")},
		{"ts ignores mod stem", "./widgets", "web/app.ts", Unresolved()},
		{"rust mod stem", "./net", "crate/main.rs", Resolved("crate/net/mod.rs")},
		{"rust lib stem", "./db", "crate/main.rs", Resolved("crate/db/lib.rs")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Resolve(tt.raw, tt.importer))
		})
	}
}

func TestResolve_RustItemTrimStopsAtImporterDir(t *testing.T) {
	// a/b.rs would be the parent module, not the item's file.
	r := newResolver(t, "a/b.rs", "a/b/c.rs")
	assert.False(t, r.Resolve("self::util::Parser", "a/b/c.rs").IsResolved())
}

func TestResolveFileRelative(t *testing.T) {
	r := newResolver(t, "src/main.c", "src/local.h", "lib/helper.rb", "lib/app.rb")

	assert.Equal(t, Resolved("src/local.h"), r.ResolveFileRelative("local.h", "src/main.c"))
	assert.Equal(t, Unresolved(), r.Resolve("local.h", "src/main.c"),
		"without the file-relative hint a bare include is a system header")

	assert.Equal(t, Resolved("lib/helper.rb"), r.ResolveFileRelative("helper", "lib/app.rb"))
	assert.Equal(t, Unresolved(), r.ResolveFileRelative("https://example.com/x.h", "src/main.c"))
}

func TestResolve_Deterministic(t *testing.T) {
	files := []string{"a/index.rs", "a/util.rs"}
	cached := newResolver(t, files...)
	uncached, err := New(NewIndex(files), WithCacheSize(0))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		assert.Equal(t, uncached.Resolve("./util", "a/index.rs"), cached.Resolve("./util", "a/index.rs"))
	}
}

func TestResolve_CacheHits(t *testing.T) {
	r := newResolver(t, "x/index.ts", "x/y.ts")

	before := testutil.ToFloat64(resolveCacheHits)
	first := r.Resolve("./y", "x/index.ts")
	second := r.Resolve("./y", "x/index.ts")
	after := testutil.ToFloat64(resolveCacheHits)

	assert.Equal(t, first, second)
	assert.Equal(t, 1.0, after-before)
}

func TestIndex(t *testing.T) {
	idx := NewIndex([]string{"./a/b.rs", "a//c.rs"})
	assert.Equal(t, 2, idx.Len())
	assert.True(t, idx.Has("a/b.rs"))
	assert.True(t, idx.Has("a/c.rs"))
	assert.False(t, idx.Has("./a/b.rs"))
}
