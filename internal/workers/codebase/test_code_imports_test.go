package codebase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github2file/internal/artifact"
)

func rec(path, lang, content string) artifact.FileRecord {
	return artifact.NewFileRecord(path, []byte(content), lang, false)
}

func build(t *testing.T, files ...artifact.FileRecord) artifact.DependencyGraph {
	t.Helper()
	g, err := CodeImports{}.Run(context.Background(), files)
	require.NoError(t, err)
	return g
}

func edge(from, to string, kind artifact.EdgeKind) artifact.DependencyEdge {
	return artifact.DependencyEdge{From: from, To: to, Kind: kind}
}

func TestPythonChain(t *testing.T) {
	g := build(t,
		rec("a.py", "python", "import b\n"),
		rec("b.py", "python", "import c\nimport os, sys\n"),
		rec("c.py", "python", "x = 1\n"),
	)
	assert.Equal(t, []string{"a.py", "b.py", "c.py"}, g.Nodes)
	assert.Equal(t, []artifact.DependencyEdge{
		edge("a.py", "b.py", artifact.EdgeImport),
		edge("b.py", "c.py", artifact.EdgeImport),
	}, g.Edges)
}

func TestPythonCycleAndFromImports(t *testing.T) {
	g := build(t,
		rec("pkg/__init__.py", "python", ""),
		rec("pkg/a.py", "python", "from . import b\nfrom .util import helper as h\n"),
		rec("pkg/b.py", "python", "from pkg import a\n"),
		rec("pkg/util.py", "python", "def helper(): pass\n"),
	)
	assert.Equal(t, []artifact.DependencyEdge{
		edge("pkg/a.py", "pkg/b.py", artifact.EdgeImport),
		edge("pkg/a.py", "pkg/util.py", artifact.EdgeImport),
		edge("pkg/b.py", "pkg/__init__.py", artifact.EdgeImport),
		edge("pkg/b.py", "pkg/a.py", artifact.EdgeImport),
	}, g.Edges)
}

func TestSourceRootsAndHeuristics(t *testing.T) {
	g := build(t,
		rec("src/app/main.py", "python", "import app.models\nimport settings\n"),
		rec("src/app/models.py", "python", ""),
		rec("config/settings.py", "python", ""),
	)
	assert.Equal(t, []artifact.DependencyEdge{
		edge("src/app/main.py", "config/settings.py", artifact.EdgeImport),
		edge("src/app/main.py", "src/app/models.py", artifact.EdgeImport),
	}, g.Edges)
}

func TestGoPackageImports(t *testing.T) {
	g := build(t,
		rec("cmd/tool/main.go", "go", "package main\n\nimport (\n\t\"fmt\"\n\tst \"github.com/acme/widgets/internal/store\"\n)\n"),
		rec("internal/store/store.go", "go", "package store\n"),
		rec("internal/store/cache.go", "go", "package store\nimport \"github.com/acme/widgets/internal/util\"\n"),
		rec("internal/util/util.go", "go", "package util\n"),
	)
	assert.Equal(t, []artifact.DependencyEdge{
		edge("cmd/tool/main.go", "internal/store/cache.go", artifact.EdgeImport),
		edge("cmd/tool/main.go", "internal/store/store.go", artifact.EdgeImport),
		edge("internal/store/cache.go", "internal/util/util.go", artifact.EdgeImport),
	}, g.Edges)
}

func TestJavaScriptCAndMarkdown(t *testing.T) {
	g := build(t,
		rec("web/app.ts", "javascript", "import { x } from './lib'\nimport React from 'react'\nconst y = require('../shared/util')\n"),
		rec("web/lib/index.ts", "javascript", ""),
		rec("shared/util.js", "javascript", ""),
		rec("native/main.c", "c", "#include \"util.h\"\n#include <stdio.h>\n"),
		rec("native/util.h", "c", ""),
		rec("docs/guide.md", "md", "See [the app](../web/app.ts) and [site](https://example.com).\n"),
	)
	assert.Equal(t, []artifact.DependencyEdge{
		edge("docs/guide.md", "web/app.ts", artifact.EdgeReference),
		edge("native/main.c", "native/util.h", artifact.EdgeInclude),
		edge("web/app.ts", "shared/util.js", artifact.EdgeImport),
		edge("web/app.ts", "web/lib/index.ts", artifact.EdgeImport),
	}, g.Edges)
}

func TestJavaImports(t *testing.T) {
	g := build(t,
		rec("src/main/java/com/acme/App.java", "java", "package com.acme;\nimport com.acme.util.Strings;\nimport java.util.List;\n"),
		rec("src/main/java/com/acme/util/Strings.java", "java", "package com.acme.util;\n"),
	)
	assert.Equal(t, []artifact.DependencyEdge{
		edge("src/main/java/com/acme/App.java", "src/main/java/com/acme/util/Strings.java", artifact.EdgeImport),
	}, g.Edges)
}

func TestBinaryFilesAreNodesOnly(t *testing.T) {
	bin := artifact.NewFileRecord("logo.py", []byte{0, 1, 2}, "binary", true)
	g := build(t, bin, rec("a.py", "python", "import logo\n"))
	assert.Equal(t, []string{"a.py", "logo.py"}, g.Nodes)
	assert.Equal(t, []artifact.DependencyEdge{edge("a.py", "logo.py", artifact.EdgeImport)}, g.Edges)
}

func TestDeterministicAcrossInputOrder(t *testing.T) {
	files := []artifact.FileRecord{
		rec("a.py", "python", "import b\nimport c\n"),
		rec("b.py", "python", "import c\n"),
		rec("c.py", "python", "import a\n"),
	}
	reversed := []artifact.FileRecord{files[2], files[1], files[0]}
	assert.Equal(t, build(t, files...), build(t, reversed...))
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := CodeImports{}.Run(ctx, []artifact.FileRecord{rec("a.py", "python", "")})
	assert.ErrorIs(t, err, context.Canceled)
}
