package stringtest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"go.jacobcolvin.com/annotate/stringtest"
)

func TestInput(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input string
		want  string
	}{
		"empty": {
			input: "",
			want:  "",
		},
		"one line": {
			input: "<?php",
			want:  "<?php",
		},
		"surrounding newlines": {
			input: "\n<?php\n",
			want:  "<?php",
		},
		"docblock indented with tabs": {
			input: "\n\t\t/**\n\t\t * @Route(\"/\")\n\t\t */\n\t",
			want:  "/**\n * @Route(\"/\")\n */",
		},
		"class body keeps relative indent": {
			input: `
				class Route
				{
				    public $path;
				}
			`,
			want: "class Route\n{\n    public $path;\n}",
		},
		"blank lines inside": {
			input: `
				namespace App;

				use Lib\Route;
			`,
			want: "namespace App;\n\nuse Lib\\Route;",
		},
		"whitespace-only lines are emptied": {
			input: "\n  <?php\n    \n  class A {}",
			want:  "<?php\n\nclass A {}",
		},
		"only one leading newline removed": {
			input: "\n\n<?php",
			want:  "\n<?php",
		},
		"only the last blank line removed": {
			input: "route:\n  path: [/]\n\n",
			want:  "route:\n  path: [/]\n",
		},
		"yaml catalog": {
			input: `
				Lib\Annotation\Route:
				  method:
				    - GET
				    - POST
			`,
			want: "Lib\\Annotation\\Route:\n  method:\n    - GET\n    - POST",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, stringtest.Input(tc.input))
		})
	}
}

func TestJoin(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input    []string
		wantLF   string
		wantCRLF string
	}{
		"nothing": {
			input:    nil,
			wantLF:   "",
			wantCRLF: "",
		},
		"one line": {
			input:    []string{"/** @Foo */"},
			wantLF:   "/** @Foo */",
			wantCRLF: "/** @Foo */",
		},
		"docblock": {
			input:    []string{"/**", " * @Foo", " */"},
			wantLF:   "/**\n * @Foo\n */",
			wantCRLF: "/**\r\n * @Foo\r\n */",
		},
		"empty line": {
			input:    []string{"<?php", "", "class A {}"},
			wantLF:   "<?php\n\nclass A {}",
			wantCRLF: "<?php\r\n\r\nclass A {}",
		},
		"embedded newline kept": {
			input:    []string{"a\nb", "c"},
			wantLF:   "a\nb\nc",
			wantCRLF: "a\nb\r\nc",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.wantLF, stringtest.JoinLF(tc.input...))
			assert.Equal(t, tc.wantCRLF, stringtest.JoinCRLF(tc.input...))
		})
	}
}
