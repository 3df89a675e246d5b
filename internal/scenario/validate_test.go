package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_Testdata(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	files, err := FindFiles("testdata/scenarios", "")
	require.NoError(t, err)
	for _, file := range files {
		assert.Empty(t, v.ValidateFile(file), file)
	}
}

func TestValidator_Violations(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	tests := []struct {
		name    string
		content string
		field   string
	}{
		{
			name:    "unknown outcome",
			content: "name: n\ndescription: d\nfixture: noop\nexpect:\n  outcome: exploded\n",
			field:   "expect.outcome",
		},
		{
			name:    "bad duration",
			content: "name: n\ndescription: d\nfixture: noop\ntimeout: soon\nexpect:\n  outcome: completed\n",
			field:   "timeout",
		},
		{
			name:    "zero repeat",
			content: "name: n\ndescription: d\nfixture: noop\nrepeat: 0\nexpect:\n  outcome: completed\n",
			field:   "repeat",
		},
		{
			name:    "unknown field",
			content: "name: n\ndescription: d\nfixture: noop\nretries: 3\nexpect:\n  outcome: completed\n",
			field:   "retries",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.Validate("s.yaml", []byte(tt.content))
			require.NotEmpty(t, errs)

			var fields []string
			for _, e := range errs {
				assert.Equal(t, "s.yaml", e.File)
				fields = append(fields, e.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestValidator_MissingRequired(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	errs := v.Validate("s.yaml", []byte("name: n\ndescription: d\nexpect:\n  outcome: completed\n"))
	assert.NotEmpty(t, errs)
}

func TestValidator_MalformedYAML(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	errs := v.Validate("s.yaml", []byte("name: [unclosed\n"))
	require.NotEmpty(t, errs)
	assert.Equal(t, "s.yaml", errs[0].File)
}

func TestValidateFile_Missing(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	errs := v.ValidateFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "no such file")
}

func TestValidationError_Error(t *testing.T) {
	e := ValidationError{File: "a.yaml", Line: 3, Field: "repeat", Message: "invalid value"}
	assert.Equal(t, "a.yaml:3: repeat: invalid value", e.Error())

	e = ValidationError{File: "a.yaml", Message: "boom"}
	assert.Equal(t, "a.yaml: boom", e.Error())
}

func TestFindFiles(t *testing.T) {
	dir := t.TempDir()
	for _, p := range []string{"a.yaml", "b.yml", "c.txt", "sub/d.yaml", "golden/e.yaml"} {
		full := filepath.Join(dir, p)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte("x"), 0644))
	}

	files, err := FindFiles(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.yaml"),
		filepath.Join(dir, "b.yml"),
		filepath.Join(dir, "sub", "d.yaml"),
	}, files)

	files, err = FindFiles(dir, "sub")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "sub", "d.yaml")}, files)
}
