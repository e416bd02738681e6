package shader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBundleOrdersLibrariesImplementorInterface(t *testing.T) {
	b := NewBundler()
	assert.NoError(t, b.AddLibrary("color", "fn color() -> f32 { return 1.0; }"))

	implementor := "//use color\nfn value() -> f32 { return color(); }"
	interfaceSource := "@fragment\nfn main() {}"

	bundled, err := b.Bundle(interfaceSource, implementor)
	assert.NoError(t, err)
	assert.Equal(t,
		"fn color() -> f32 { return 1.0; }\n"+
			"//use color\nfn value() -> f32 { return color(); }\n"+
			"@fragment\nfn main() {}\n",
		bundled)
}

func TestBundleTransitiveDependenciesComeFirst(t *testing.T) {
	b := NewBundler()
	assert.NoError(t, b.AddLibrary("low", "LOW"))
	assert.NoError(t, b.AddLibrary("high", "//use low\nHIGH"))

	bundled, err := b.Bundle("//use high\nIFACE", "IMPL")
	assert.NoError(t, err)

	low := strings.Index(bundled, "LOW")
	high := strings.Index(bundled, "HIGH")
	iface := strings.Index(bundled, "IFACE")
	assert.True(t, low >= 0 && low < high, "dependency must precede its user")
	assert.True(t, high < iface)
}

func TestBundleSharedDependencyOnce(t *testing.T) {
	b := NewBundler()
	assert.NoError(t, b.AddLibrary("base", "BASE"))
	assert.NoError(t, b.AddLibrary("a", "//use base\nAAA"))
	assert.NoError(t, b.AddLibrary("c", "//use base\nCCC"))

	bundled, err := b.Bundle("//use a\nIFACE", "//use c\nIMPL")
	assert.NoError(t, err)
	assert.Equal(t, 1, strings.Count(bundled, "BASE"))
	assert.Less(t, strings.Index(bundled, "BASE"), strings.Index(bundled, "AAA"))
	assert.Less(t, strings.Index(bundled, "BASE"), strings.Index(bundled, "CCC"))
}

func TestBundleUnknownDependency(t *testing.T) {
	b := NewBundler()

	_, err := b.Bundle("//use missing\nIFACE", "IMPL")
	assert.ErrorIs(t, err, ErrUnknownDependency)
	assert.ErrorContains(t, err, "missing")
}

func TestAddLibraryTwice(t *testing.T) {
	b := NewBundler()
	assert.NoError(t, b.AddLibrary("dup", "x"))
	assert.ErrorIs(t, b.AddLibrary("dup", "y"), ErrModuleExists)
}

func TestBundleConditionalSections(t *testing.T) {
	source := strings.Join([]string{
		"const base = 1;",
		"//if(hd)",
		"const detail = 8;",
		"//else",
		"const detail = 2;",
		"//endif",
		"const tail = 1;",
	}, "\n")
	b := NewBundler()

	hd, err := b.Bundle(source, "", "hd")
	assert.NoError(t, err)
	assert.Contains(t, hd, "const detail = 8;")
	assert.NotContains(t, hd, "const detail = 2;")

	sd, err := b.Bundle(source, "")
	assert.NoError(t, err)
	assert.Contains(t, sd, "const detail = 2;")
	assert.NotContains(t, sd, "const detail = 8;")

	for _, bundled := range []string{hd, sd} {
		assert.Contains(t, bundled, "const base = 1;")
		assert.Contains(t, bundled, "const tail = 1;")
		assert.NotContains(t, bundled, "//if")
		assert.NotContains(t, bundled, "//else")
		assert.NotContains(t, bundled, "//endif")
	}
}

func TestBundleNestedConditionals(t *testing.T) {
	source := strings.Join([]string{
		"//if(outer)",
		"A1",
		"//if(inner)",
		"AB",
		"//endif",
		"A2",
		"//endif",
	}, "\n")
	b := NewBundler()

	bundled, err := b.Bundle(source, "", "outer", "inner")
	assert.NoError(t, err)
	assert.Contains(t, bundled, "A1")
	assert.Contains(t, bundled, "AB")
	assert.Contains(t, bundled, "A2")

	bundled, err = b.Bundle(source, "", "outer")
	assert.NoError(t, err)
	assert.Contains(t, bundled, "A1")
	assert.NotContains(t, bundled, "AB")
	assert.Contains(t, bundled, "A2")

	bundled, err = b.Bundle(source, "")
	assert.NoError(t, err)
	assert.NotContains(t, bundled, "A1")
	assert.NotContains(t, bundled, "AB")
	assert.NotContains(t, bundled, "A2")
}

func TestBundleDroppedSectionStillValidated(t *testing.T) {
	source := strings.Join([]string{
		"//if(never)",
		"//if(bad cond)",
		"x",
		"//endif",
		"//endif",
	}, "\n")

	_, err := NewBundler().Bundle(source, "")
	assert.ErrorIs(t, err, ErrInvalidCondition)
	assert.ErrorContains(t, err, "line 2")
}

func TestBundleMalformedDirectives(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		errPart string
	}{
		{"stray endif", "x\n//endif", "//endif without //if"},
		{"stray else", "//else\nx", "//else without //if"},
		{"double else", "//if(a)\nx\n//else\ny\n//else\nz\n//endif", "second //else"},
		{"missing endif", "//if(a)\nx", "missing //endif"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := NewBundler().Bundle(test.source, "")
			assert.ErrorIs(t, err, ErrMalformedDirective)
			assert.ErrorContains(t, err, test.errPart)
		})
	}
}

func TestEvalCondition(t *testing.T) {
	tests := []struct {
		condition string
		flags     []string
		want      bool
		valid     bool
	}{
		{"fire", []string{"fire"}, true, true},
		{"fire", nil, false, true},
		{"!fire", nil, true, true},
		{"!!fire", []string{"fire"}, true, true},
		{"(a)&(b)", []string{"a", "b"}, true, true},
		{"(a)&(b)", []string{"a"}, false, true},
		{"(a)|(b)", []string{"b"}, true, true},
		{"(a)|(b)", nil, false, true},
		{"!(a)&(b)", []string{"a"}, true, true},
		{"((a)|(b))&(c)", []string{"a", "c"}, true, true},
		{"((a)|(b))&(c)", []string{"a"}, false, true},
		{"a&b", nil, false, false},
		{"(a)&b", nil, false, false},
		{"(a)", nil, false, false},
		{"a b", nil, false, false},
		{"", nil, false, false},
		{"(a)&(b)|(c)", nil, false, false},
	}
	for _, test := range tests {
		t.Run(test.condition, func(t *testing.T) {
			flags := map[string]struct{}{}
			for _, flag := range test.flags {
				flags[flag] = struct{}{}
			}
			value, ok := evalCondition(test.condition, flags)
			assert.Equal(t, test.valid, ok)
			if test.valid {
				assert.Equal(t, test.want, value)
			}
		})
	}
}

func TestDependenciesStopAtFirstNonUseLine(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, dependencies("//use a\n//use b\ncode\n//use c"))
	assert.Empty(t, dependencies("code\n//use a"))
	assert.Equal(t, []string{"spaced"}, dependencies("//use   spaced\ncode"))
}
