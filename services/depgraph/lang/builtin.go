// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package lang

import (
	"regexp"
	"strings"
)

// =============================================================================
// Matcher helpers
// =============================================================================

func decl(kind SymbolKind, pattern string) Matcher {
	return Matcher{Kind: kind, Pattern: regexp.MustCompile(pattern)}
}

func imp(pattern string) Matcher {
	return Matcher{Kind: KindImport, Pattern: regexp.MustCompile(pattern)}
}

func impRelative(pattern string) Matcher {
	return Matcher{Kind: KindImport, Pattern: regexp.MustCompile(pattern), FileRelative: true}
}

var (
	cComments     = []string{"//"}
	cBlock        = []Delimiters{{Open: "/*", Close: "*/"}}
	hashComments  = []string{"#"}
	cFamilyQuotes = "\"'"
)

// builtinProfiles returns a fresh copy of the built-in language table.
//
// Order matters only for Languages() output and for the documentation
// listing in the CLI.
func builtinProfiles() []*Profile {
	return []*Profile{
		rustProfile(),
		pythonProfile(),
		javascriptProfile(),
		typescriptProfile(),
		goProfile(),
		javaProfile(),
		kotlinProfile(),
		scalaProfile(),
		cProfile(),
		cppProfile(),
		csharpProfile(),
		rubyProfile(),
		phpProfile(),
		swiftProfile(),
		shellProfile(),
		luaProfile(),
	}
}

// =============================================================================
// Systems languages
// =============================================================================

const rustVis = `(?:pub(?:\([^)]*\))?\s+)?`

func rustProfile() *Profile {
	return &Profile{
		Language:      "rust",
		Extensions:    []string{".rs"},
		IndexStems:    []string{"index", "mod", "lib"},
		LineComments:  cComments,
		BlockComments: cBlock,
		Quotes:        `"`,
		Declarations: []Matcher{
			decl(KindExport, `^\s*pub(?:\([^)]*\))?\s+(?:async\s+)?(?:unsafe\s+)?(?:fn|struct|enum|trait|mod|type|const|static|union)\s+(?P<name>[A-Za-z_]\w*)`),
			decl(KindFunction, `^\s*`+rustVis+`(?:const\s+)?(?:async\s+)?(?:unsafe\s+)?(?:extern\s+"[^"]*"\s+)?fn\s+(?P<name>[A-Za-z_]\w*)`),
			decl(KindClass, `^\s*`+rustVis+`(?:struct|enum|trait|union)\s+(?P<name>[A-Za-z_]\w*)`),
			decl(KindModule, `^\s*`+rustVis+`mod\s+(?P<name>[A-Za-z_]\w*)\s*[;{]`),
		},
		Imports: []Matcher{
			imp(`^\s*` + rustVis + `use\s+(?P<ref>[^;]+);`),
			imp(`^\s*extern\s+crate\s+(?P<ref>[A-Za-z_]\w*)`),
			impRelative(`^\s*` + rustVis + `mod\s+(?P<ref>[A-Za-z_]\w*)\s*;`),
		},
		Convention: rustConvention,
		TrimItem:   true,
	}
}

// rustConvention maps self:: and super:: paths onto ./ and ../ paths.
// Brace groups and globs at the tail are dropped: self::util::{A, B} is
// a reference to ./util.
func rustConvention(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if i := strings.Index(raw, "::{"); i >= 0 {
		raw = raw[:i]
	}
	raw = strings.TrimSuffix(raw, "::*")
	if i := strings.Index(raw, " as "); i >= 0 {
		raw = strings.TrimSpace(raw[:i])
	}

	segments := strings.Split(raw, "::")
	var prefix []string
	i := 0
	switch {
	case len(segments) > 0 && segments[0] == "self":
		prefix = append(prefix, ".")
		i = 1
	case len(segments) > 0 && segments[0] == "super":
		for i < len(segments) && segments[i] == "super" {
			prefix = append(prefix, "..")
			i++
		}
	default:
		return "", false
	}
	if i >= len(segments) {
		return strings.Join(prefix, "/"), true
	}
	return strings.Join(append(prefix, segments[i:]...), "/"), true
}

func cReserved() map[string]struct{} {
	return reserved("if", "else", "for", "while", "switch", "return", "sizeof",
		"do", "case", "goto", "defined", "typedef", "catch", "throw", "new", "delete")
}

func cProfile() *Profile {
	return &Profile{
		Language:          "c",
		Extensions:        []string{".c", ".h"},
		ResolveExtensions: []string{".h", ".c"},
		LineComments:      cComments,
		BlockComments:     cBlock,
		Quotes:            cFamilyQuotes,
		Declarations: []Matcher{
			decl(KindFunction, `^[A-Za-z_][\w\s\*]*?[\s\*](?P<name>[A-Za-z_]\w*)\s*\([^;]*$`),
			decl(KindClass, `^\s*(?:typedef\s+)?(?:struct|union|enum)\s+(?P<name>[A-Za-z_]\w*)\s*\{?\s*$`),
		},
		Imports: []Matcher{
			impRelative(`^\s*#\s*include\s+"(?P<ref>[^"]+)"`),
			imp(`^\s*#\s*include\s+<(?P<ref>[^>]+)>`),
		},
		Reserved: cReserved(),
	}
}

func cppProfile() *Profile {
	return &Profile{
		Language:          "cpp",
		Extensions:        []string{".cpp", ".cc", ".cxx", ".hpp", ".hh", ".hxx"},
		ResolveExtensions: []string{".hpp", ".h", ".hh", ".hxx", ".cpp", ".cc", ".cxx"},
		LineComments:      cComments,
		BlockComments:     cBlock,
		Quotes:            cFamilyQuotes,
		Declarations: []Matcher{
			decl(KindFunction, `^(?:[A-Za-z_][\w:<>,\*&\s]*?[\s\*&])?(?:[A-Za-z_]\w*::)*(?P<name>~?[A-Za-z_]\w*)\s*\([^;]*$`),
			decl(KindClass, `^\s*(?:template\s*<[^>]*>\s*)?(?:class|struct|union|enum(?:\s+class)?)\s+(?P<name>[A-Za-z_]\w*)\s*(?:final\s*)?[:{]?\s*[^;]*$`),
			decl(KindModule, `^\s*(?:inline\s+)?namespace\s+(?P<name>[A-Za-z_][\w:]*)`),
		},
		Imports: []Matcher{
			impRelative(`^\s*#\s*include\s+"(?P<ref>[^"]+)"`),
			imp(`^\s*#\s*include\s+<(?P<ref>[^>]+)>`),
			imp(`^\s*import\s+(?P<ref>[\w.:]+)\s*;`),
		},
		Reserved: cReserved(),
	}
}

func goProfile() *Profile {
	return &Profile{
		Language:      "go",
		Extensions:    []string{".go"},
		LineComments:  cComments,
		BlockComments: cBlock,
		Quotes:        "\"'`",
		Declarations: []Matcher{
			decl(KindExport, `^func\s+(?:\([^)]*\)\s*)?(?P<name>[A-Z]\w*)\s*[\[(]`),
			decl(KindFunction, `^func\s+(?:\([^)]*\)\s*)?(?P<name>[A-Za-z_]\w*)\s*[\[(]`),
			decl(KindClass, `^type\s+(?P<name>[A-Za-z_]\w*)(?:\[[^\]]*\])?\s+(?:struct|interface)\b`),
			decl(KindModule, `^package\s+(?P<name>[A-Za-z_]\w*)`),
		},
		Imports: []Matcher{
			imp(`^import\s+(?:[A-Za-z_.]\w*\s+)?"(?P<ref>[^"]+)"`),
			imp(`^\s+(?:[A-Za-z_.]\w*\s+)?"(?P<ref>[^"]+)"\s*$`),
		},
	}
}

// =============================================================================
// Scripting languages
// =============================================================================

func pythonProfile() *Profile {
	return &Profile{
		Language:     "python",
		Extensions:   []string{".py", ".pyi"},
		IndexStems:   []string{"__init__"},
		LineComments: hashComments,
		BlockComments: []Delimiters{
			{Open: `"""`, Close: `"""`},
			{Open: `'''`, Close: `'''`},
		},
		Quotes: cFamilyQuotes,
		Declarations: []Matcher{
			decl(KindExport, `^__all__\s*(?:\+?=)\s*[\[(](?P<names>[^\])]*)[\])]`),
			decl(KindFunction, `^\s*(?:async\s+)?def\s+(?P<name>[A-Za-z_]\w*)\s*\(`),
			decl(KindClass, `^\s*class\s+(?P<name>[A-Za-z_]\w*)`),
		},
		Imports: []Matcher{
			imp(`^\s*from\s+(?P<ref>\.+[\w.]*|[A-Za-z_][\w.]*)\s+import\b`),
			imp(`^\s*import\s+(?P<names>[A-Za-z_][\w.]*(?:\s+as\s+\w+)?(?:\s*,\s*[A-Za-z_][\w.]*(?:\s+as\s+\w+)?)*)`),
		},
		Convention: pythonConvention,
	}
}

// pythonConvention maps leading-dot module references onto slash paths:
// .util is ./util, ..pkg.mod is ../pkg/mod, a lone . is the package
// directory itself.
func pythonConvention(raw string) (string, bool) {
	dots := 0
	for dots < len(raw) && raw[dots] == '.' {
		dots++
	}
	if dots == 0 {
		return "", false
	}
	parts := make([]string, 0, dots+1)
	if dots == 1 {
		parts = append(parts, ".")
	} else {
		for i := 1; i < dots; i++ {
			parts = append(parts, "..")
		}
	}
	if rest := raw[dots:]; rest != "" {
		parts = append(parts, strings.Split(rest, ".")...)
	}
	return strings.Join(parts, "/"), true
}

var jsIdent = `[A-Za-z_$][\w$]*`

func jsDeclarations(exportKinds string) []Matcher {
	return []Matcher{
		decl(KindExport, `^\s*export\s+(?:default\s+)?(?:declare\s+)?(?:async\s+)?(?:abstract\s+)?(?:`+exportKinds+`)\s+(?P<name>`+jsIdent+`)`),
		decl(KindExport, `^\s*export\s+default\s+(?P<name>`+jsIdent+`)\s*;?\s*$`),
		decl(KindExport, `^\s*export\s+default\s+(?:async\s+)?(?:function\*?|class)\s*[({]`),
		decl(KindExport, `^\s*export\s*\{(?P<names>[^}]*)\}`),
		decl(KindFunction, `^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\*?\s+(?P<name>`+jsIdent+`)\s*[<(]`),
		decl(KindFunction, `^\s*(?:export\s+)?(?:const|let|var)\s+(?P<name>`+jsIdent+`)\s*(?::[^=]+)?=\s*(?:async\s+)?(?:function\b|\([^)]*\)\s*(?::[^=]+)?=>|`+jsIdent+`\s*=>)`),
		decl(KindClass, `^\s*(?:export\s+)?(?:default\s+)?(?:declare\s+)?(?:abstract\s+)?class\s+(?P<name>`+jsIdent+`)`),
	}
}

func jsImports() []Matcher {
	return []Matcher{
		imp(`^\s*import\s+(?:type\s+)?[^'"]*?\s*from\s+['"](?P<ref>[^'"]+)['"]`),
		imp(`^\s*import\s+['"](?P<ref>[^'"]+)['"]`),
		imp(`^\s*export\s+(?:type\s+)?(?:\*(?:\s+as\s+` + jsIdent + `)?|\{[^}]*\})\s*from\s+['"](?P<ref>[^'"]+)['"]`),
		imp(`^\s*\}\s*from\s+['"](?P<ref>[^'"]+)['"]`),
		imp(`\brequire\s*\(\s*['"](?P<ref>[^'"]+)['"]\s*\)`),
		imp(`\bimport\s*\(\s*['"](?P<ref>[^'"]+)['"]\s*\)`),
	}
}

func javascriptProfile() *Profile {
	return &Profile{
		Language:          "javascript",
		Extensions:        []string{".js", ".jsx", ".mjs", ".cjs"},
		ResolveExtensions: []string{".js", ".jsx", ".mjs", ".cjs", ".json"},
		IndexStems:        []string{"index"},
		LineComments:      cComments,
		BlockComments:     cBlock,
		Quotes:            "\"'`",
		Declarations:      jsDeclarations(`function\*?|class|const|let|var`),
		Imports:           jsImports(),
	}
}

func typescriptProfile() *Profile {
	decls := jsDeclarations(`function\*?|class|const|let|var|interface|type|enum|namespace`)
	decls = append(decls,
		decl(KindClass, `^\s*(?:export\s+)?(?:declare\s+)?(?:interface|enum)\s+(?P<name>`+jsIdent+`)`),
		decl(KindClass, `^\s*(?:export\s+)?(?:declare\s+)?type\s+(?P<name>`+jsIdent+`)\s*(?:<[^>]*>)?\s*=`),
		decl(KindModule, `^\s*(?:export\s+)?(?:declare\s+)?(?:namespace|module)\s+(?P<name>`+jsIdent+`(?:\.`+jsIdent+`)*)\s*\{`),
	)
	return &Profile{
		Language:          "typescript",
		Extensions:        []string{".ts", ".tsx", ".mts", ".cts"},
		ResolveExtensions: []string{".ts", ".tsx", ".d.ts", ".js", ".jsx", ".mjs", ".cjs", ".json"},
		IndexStems:        []string{"index"},
		LineComments:      cComments,
		BlockComments:     cBlock,
		Quotes:            "\"'`",
		Declarations:      decls,
		Imports:           jsImports(),
	}
}

func rubyProfile() *Profile {
	return &Profile{
		Language:      "ruby",
		Extensions:    []string{".rb", ".rake"},
		LineComments:  hashComments,
		BlockComments: []Delimiters{{Open: "=begin", Close: "=end"}},
		Quotes:        cFamilyQuotes,
		Declarations: []Matcher{
			decl(KindFunction, `^\s*def\s+(?:self\.)?(?P<name>[A-Za-z_]\w*[?!=]?)`),
			decl(KindClass, `^\s*class\s+(?P<name>[A-Z]\w*(?:::[A-Z]\w*)*)`),
			decl(KindModule, `^\s*module\s+(?P<name>[A-Z]\w*(?:::[A-Z]\w*)*)`),
		},
		Imports: []Matcher{
			impRelative(`^\s*require_relative\s*\(?\s*['"](?P<ref>[^'"]+)['"]`),
			imp(`^\s*(?:require|load)\s*\(?\s*['"](?P<ref>[^'"]+)['"]`),
		},
	}
}

func phpProfile() *Profile {
	return &Profile{
		Language:      "php",
		Extensions:    []string{".php"},
		LineComments:  []string{"//", "#"},
		BlockComments: cBlock,
		Quotes:        cFamilyQuotes,
		Declarations: []Matcher{
			decl(KindFunction, `^\s*(?:(?:public|private|protected|static|abstract|final)\s+)*function\s+&?(?P<name>[A-Za-z_]\w*)\s*\(`),
			decl(KindClass, `^\s*(?:(?:abstract|final|readonly)\s+)*(?:class|interface|trait|enum)\s+(?P<name>[A-Za-z_]\w*)`),
			decl(KindModule, `^\s*namespace\s+(?P<name>[\w\\]+)\s*[;{]`),
		},
		Imports: []Matcher{
			imp(`^\s*use\s+(?:function\s+|const\s+)?(?P<ref>[\w\\]+)`),
			impRelative(`\b(?:require|include)(?:_once)?\s*\(?\s*(?:__DIR__\s*\.\s*)?['"](?P<ref>[^'"]+)['"]`),
		},
	}
}

func shellProfile() *Profile {
	return &Profile{
		Language:          "shell",
		Extensions:        []string{".sh", ".bash", ".zsh"},
		LineComments:      hashComments,
		Quotes:            cFamilyQuotes,
		CommentNeedsSpace: true,
		Declarations: []Matcher{
			decl(KindFunction, `^\s*function\s+(?P<name>[A-Za-z_][\w:-]*)`),
			decl(KindFunction, `^\s*(?P<name>[A-Za-z_][\w:-]*)\s*\(\s*\)`),
		},
		Imports: []Matcher{
			impRelative(`^\s*(?:source|\.)\s+['"]?(?P<ref>[^\s'";]+)['"]?`),
		},
		Reserved: reserved("function", "if", "then", "fi", "for", "while", "do", "done"),
	}
}

func luaProfile() *Profile {
	return &Profile{
		Language:   "lua",
		Extensions: []string{".lua"},
		// Block opener is checked before the line marker.
		LineComments:  []string{"--"},
		BlockComments: []Delimiters{{Open: "--[[", Close: "]]"}},
		Quotes:        cFamilyQuotes,
		Declarations: []Matcher{
			decl(KindFunction, `^\s*(?:local\s+)?function\s+(?:[\w.]+[.:])?(?P<name>[A-Za-z_]\w*)\s*\(`),
			decl(KindFunction, `^\s*(?:local\s+)?(?:[\w.]+\.)?(?P<name>[A-Za-z_]\w*)\s*=\s*function\b`),
		},
		Imports: []Matcher{
			imp(`\brequire\s*\(?\s*['"](?P<ref>[^'"]+)['"]`),
		},
	}
}

// =============================================================================
// JVM and .NET languages
// =============================================================================

func javaProfile() *Profile {
	return &Profile{
		Language:      "java",
		Extensions:    []string{".java"},
		LineComments:  cComments,
		BlockComments: cBlock,
		Quotes:        cFamilyQuotes,
		Declarations: []Matcher{
			decl(KindExport, `^\s*public\s+(?:(?:abstract|final|static|sealed|strictfp)\s+)*(?:class|interface|enum|record|@interface)\s+(?P<name>[A-Za-z_$][\w$]*)`),
			decl(KindClass, `^\s*(?:(?:public|protected|private|abstract|final|static|sealed|non-sealed|strictfp)\s+)*(?:class|interface|enum|record|@interface)\s+(?P<name>[A-Za-z_$][\w$]*)`),
			decl(KindFunction, `^\s*(?:(?:public|protected|private|static|final|abstract|synchronized|native|default)\s+)+(?:<[^>]+>\s+)?[\w$<>\[\],.?\s]+?\s+(?P<name>[A-Za-z_$][\w$]*)\s*\(`),
			decl(KindModule, `^\s*package\s+(?P<name>[\w.]+)\s*;`),
		},
		Imports: []Matcher{
			imp(`^\s*import\s+(?:static\s+)?(?P<ref>[\w.]+(?:\.\*)?)\s*;`),
		},
		Reserved: reserved("if", "for", "while", "switch", "return", "new", "catch", "synchronized"),
	}
}

func kotlinProfile() *Profile {
	return &Profile{
		Language:      "kotlin",
		Extensions:    []string{".kt", ".kts"},
		LineComments:  cComments,
		BlockComments: cBlock,
		Quotes:        cFamilyQuotes,
		Declarations: []Matcher{
			decl(KindFunction, `^\s*(?:(?:public|private|internal|protected|open|override|suspend|inline|operator|infix|tailrec|abstract|final)\s+)*fun\s+(?:<[^>]+>\s*)?(?:[\w.]+\.)?(?P<name>[A-Za-z_]\w*)\s*\(`),
			decl(KindClass, `^\s*(?:(?:public|private|internal|protected|open|abstract|sealed|data|enum|inner|value|annotation|final)\s+)*(?:class|interface|object)\s+(?P<name>[A-Za-z_]\w*)`),
			decl(KindModule, `^\s*package\s+(?P<name>[\w.]+)`),
		},
		Imports: []Matcher{
			imp(`^\s*import\s+(?P<ref>[\w.]+(?:\.\*)?)`),
		},
	}
}

func scalaProfile() *Profile {
	return &Profile{
		Language:      "scala",
		Extensions:    []string{".scala", ".sc"},
		LineComments:  cComments,
		BlockComments: cBlock,
		Quotes:        cFamilyQuotes,
		Declarations: []Matcher{
			decl(KindFunction, `^\s*(?:(?:override|private|protected|final|implicit|lazy)\s+)*def\s+(?P<name>[A-Za-z_]\w*)`),
			decl(KindClass, `^\s*(?:(?:abstract|final|sealed|case|implicit|private|protected)\s+)*(?:class|trait|object)\s+(?P<name>[A-Za-z_]\w*)`),
			decl(KindModule, `^\s*package\s+(?P<name>[\w.]+)`),
		},
		Imports: []Matcher{
			imp(`^\s*import\s+(?P<ref>[\w.]+(?:\.\{[^}]*\}|\._|\.\*)?)`),
		},
	}
}

func csharpProfile() *Profile {
	return &Profile{
		Language:      "csharp",
		Extensions:    []string{".cs"},
		LineComments:  cComments,
		BlockComments: cBlock,
		Quotes:        cFamilyQuotes,
		Declarations: []Matcher{
			decl(KindExport, `^\s*public\s+(?:(?:static|abstract|sealed|partial|readonly)\s+)*(?:class|interface|struct|enum|record)\s+(?P<name>[A-Za-z_]\w*)`),
			decl(KindClass, `^\s*(?:(?:public|private|protected|internal|static|abstract|sealed|partial|readonly)\s+)*(?:class|interface|struct|enum|record)\s+(?P<name>[A-Za-z_]\w*)`),
			decl(KindFunction, `^\s*(?:(?:public|private|protected|internal|static|virtual|override|abstract|async|sealed|extern|unsafe|new)\s+)+[\w<>\[\],.?\s]+?\s+(?P<name>[A-Za-z_]\w*)\s*\(`),
			decl(KindModule, `^\s*namespace\s+(?P<name>[\w.]+)`),
		},
		Imports: []Matcher{
			imp(`^\s*(?:global\s+)?using\s+(?:static\s+)?(?:\w+\s*=\s*)?(?P<ref>[\w.]+)\s*;`),
		},
		Reserved: reserved("if", "for", "foreach", "while", "switch", "return", "new", "catch", "using", "lock"),
	}
}

func swiftProfile() *Profile {
	return &Profile{
		Language:      "swift",
		Extensions:    []string{".swift"},
		LineComments:  cComments,
		BlockComments: cBlock,
		Quotes:        `"`,
		Declarations: []Matcher{
			decl(KindExport, `^\s*(?:public|open)\s+(?:(?:final|static|class|override)\s+)*(?:func|class|struct|enum|protocol|actor)\s+(?P<name>[A-Za-z_]\w*)`),
			decl(KindFunction, `^\s*(?:(?:public|private|internal|fileprivate|open|static|class|override|final|mutating|@\w+)\s+)*func\s+(?P<name>[A-Za-z_]\w*)`),
			decl(KindClass, `^\s*(?:(?:public|private|internal|fileprivate|open|final|indirect)\s+)*(?:class|struct|enum|protocol|actor|extension)\s+(?P<name>[A-Za-z_]\w*)`),
		},
		Imports: []Matcher{
			imp(`^\s*(?:@testable\s+)?import\s+(?:(?:typealias|struct|class|enum|protocol|let|var|func)\s+)?(?P<ref>[\w.]+)`),
		},
	}
}
