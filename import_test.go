package linkschema

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFS struct {
	files map[string]string
}

func (f *fakeFS) ReadToString(path string) (string, error) {
	if text, ok := f.files[path]; ok {
		return text, nil
	}
	return "", fmt.Errorf("not found: %s", path)
}

func (f *fakeFS) Write(path string, data []byte) error {
	f.files[path] = string(data)
	return nil
}

type fakeHTTP struct {
	pages map[string]string
}

func (f *fakeHTTP) Get(url string) (int, string, error) {
	if text, ok := f.pages[url]; ok {
		return 200, text, nil
	}
	return 404, "", nil
}

func TestResolveImportsMergeIfAbsent(t *testing.T) {
	root, _, err := Parse(`
name: root-schema
imports:
  - common
classes:
  Person:
    description: root person
`, ParseOptions{})
	require.NoError(t, err)

	fs := &fakeFS{files: map[string]string{
		"lib/common.yaml": `
name: common-schema
classes:
  Person:
    description: common person
  Organization:
    description: an org
`,
	}}

	merged, err := ResolveImports(root, ImportSettings{SearchPaths: []string{"lib"}}, fs, nil)
	require.NoError(t, err)

	person, ok := merged.ClassByName("Person")
	require.True(t, ok)
	assert.Equal(t, "root person", person.Description, "importer's own class wins over the imported one")

	org, ok := merged.ClassByName("Organization")
	require.True(t, ok)
	assert.Equal(t, "an org", org.Description)
}

func TestResolveImportsDetectsCycle(t *testing.T) {
	root, _, err := Parse(`
name: root-schema
imports:
  - a
`, ParseOptions{})
	require.NoError(t, err)

	fs := &fakeFS{files: map[string]string{
		"lib/a.yaml": "name: a-schema\nimports:\n  - b\n",
		"lib/b.yaml": "name: b-schema\nimports:\n  - a\n",
	}}

	_, err = ResolveImports(root, ImportSettings{SearchPaths: []string{"lib"}}, fs, nil)
	require.Error(t, err)
	var ierr *ImportError
	require.ErrorAs(t, err, &ierr)
}

func TestResolveImportsFallsBackToBaseURL(t *testing.T) {
	root, _, err := Parse("name: root-schema\nimports:\n  - remote\n", ParseOptions{})
	require.NoError(t, err)

	http := &fakeHTTP{pages: map[string]string{
		"https://schemas.example.org/remote": "name: remote-schema\nclasses:\n  Widget: {}\n",
	}}

	merged, err := ResolveImports(root, ImportSettings{BaseURL: "https://schemas.example.org"}, nil, http)
	require.NoError(t, err)
	_, ok := merged.ClassByName("Widget")
	assert.True(t, ok)
}

func TestResolveImportsNotFoundIsImportError(t *testing.T) {
	root, _, err := Parse("name: root-schema\nimports:\n  - missing\n", ParseOptions{})
	require.NoError(t, err)

	_, err = ResolveImports(root, ImportSettings{SearchPaths: []string{"lib"}}, &fakeFS{files: map[string]string{}}, nil)
	require.Error(t, err)
	var ierr *ImportError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, "missing", ierr.ImportPath)
}

func TestImportSettingsFromSchema(t *testing.T) {
	s := Settings{ImportsSearchPaths: []string{"a", "b"}, ImportsBaseURL: "https://x"}
	is := ImportSettingsFromSchema(s)
	assert.Equal(t, []string{"a", "b"}, is.SearchPaths)
	assert.Equal(t, "https://x", is.BaseURL)
}

func TestLoadSchemaEndToEnd(t *testing.T) {
	fs := &fakeFS{files: map[string]string{
		"lib/types.yaml": "name: types-schema\nclasses:\n  Base:\n    abstract: true\n",
	}}
	schema, issues, err := LoadSchema(`
name: main-schema
imports:
  - types
classes:
  Derived:
    is_a: Base
`, ParseOptions{}, ImportSettings{SearchPaths: []string{"lib"}}, fs, nil)
	require.NoError(t, err)
	assert.Empty(t, issues)
	_, ok := schema.ClassByName("Base")
	assert.True(t, ok)
	_, ok = schema.ClassByName("Derived")
	assert.True(t, ok)
}
