package extract

import (
	"reflect"
	"testing"
)

func TestPythonExtractor_Extract(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		expected []string
	}{
		{
			name:     "plain import",
			source:   "import os\n",
			expected: []string{"os"},
		},
		{
			name:     "dotted import with alias",
			source:   "import numpy.linalg as la\n",
			expected: []string{"numpy.linalg"},
		},
		{
			name:     "comma separated imports",
			source:   "import os, sys\n",
			expected: []string{"os", "sys"},
		},
		{
			name:     "from import emits base and dotted names",
			source:   "from pkg import mod, other\n",
			expected: []string{"pkg", "pkg.mod", "pkg.other"},
		},
		{
			name:     "from import with alias",
			source:   "from lib.helper import run as go\n",
			expected: []string{"lib.helper", "lib.helper.run"},
		},
		{
			name:     "relative import keeps dots",
			source:   "from . import sibling\nfrom ..pkg import thing\n",
			expected: []string{".", ".sibling", "..pkg", "..pkg.thing"},
		},
		{
			name:     "wildcard contributes base only",
			source:   "from pkg import *\n",
			expected: []string{"pkg"},
		},
		{
			name:     "parenthesized continuation",
			source:   "from pkg import (\n    a,\n    b,\n)\n",
			expected: []string{"pkg", "pkg.a", "pkg.b"},
		},
		{
			name:     "backslash continuation",
			source:   "import os, \\\n    sys\n",
			expected: []string{"os", "sys"},
		},
		{
			name:     "comment tail stripped",
			source:   "import os  # core\n",
			expected: []string{"os"},
		},
		{
			name:     "hash inside string is not a comment",
			source:   "x = \"#\"\nimport os\n",
			expected: []string{"os"},
		},
		{
			name:     "no imports",
			source:   "def main():\n    pass\n",
			expected: nil,
		},
		{
			name:     "malformed source yields what it can",
			source:   "import os\nclass : broken\nimport sys\n",
			expected: []string{"os", "sys"},
		},
	}

	e := &PythonExtractor{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Extract([]byte(tt.source))
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Extract() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestPythonExtractor_BinaryInputDoesNotPanic(t *testing.T) {
	e := &PythonExtractor{}
	got := e.Extract([]byte{0x00, 0xff, 0xfe, 0x89, 0x50})
	if len(got) != 0 {
		t.Errorf("expected no specifiers from binary input, got %v", got)
	}
}
