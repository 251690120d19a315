package linkschema

import (
	"path"
	"strings"

	"github.com/dominikbraun/graph"
)

// ImportSettings configures ResolveImports (spec §4.4): search paths are
// tried in order with each of the recognized extensions, and a base URL is
// consulted only when no search path match is found.
type ImportSettings struct {
	SearchPaths []string
	BaseURL     string
}

// ImportSettingsFromSchema builds ImportSettings from a schema's own
// Settings (spec §3.1 "imports.search_paths", "imports.base_url").
func ImportSettingsFromSchema(s Settings) ImportSettings {
	return ImportSettings{SearchPaths: s.ImportsSearchPaths, BaseURL: s.ImportsBaseURL}
}

var importExtensions = []string{".yaml", ".yml", ".json"}

// rootVertex is the synthetic graph vertex representing the root document
// itself, distinct from any import ID (import IDs are never empty strings
// in practice).
const rootVertex = ""

// ResolveImports loads root's transitive imports and merges them into a
// single schema (spec §4.4). The import graph is tracked with
// dominikbraun/graph exactly as the ancestry graph is in NewResolver
// (spec §3.4: "Import graph is a DAG; cycles raise a fatal error"); an
// import that closes a cycle is reported as an *ImportError, and an import
// already loaded through another path is merged only once. fs and http may be nil; import specs that would
// need them then fail with a not-found *ImportError instead of panicking.
func ResolveImports(root *Schema, settings ImportSettings, fs FileSystem, http HttpFetcher) (*Schema, error) {
	merged := *root
	merged.Classes = root.Classes.Clone()
	merged.Slots = root.Slots.Clone()
	merged.Types = root.Types.Clone()
	merged.Enums = root.Enums.Clone()
	merged.Subsets = root.Subsets.Clone()
	merged.Prefixes = root.Prefixes.Clone()

	g := graph.New(func(s string) string { return s }, graph.Directed())
	_ = g.AddVertex(rootVertex)

	loaded := map[string]bool{}
	if err := resolveImportsRec(g, rootVertex, root, settings, fs, http, &merged, loaded); err != nil {
		return nil, err
	}
	return &merged, nil
}

func resolveImportsRec(g graph.Graph[string, string], fromID string, fromSchema *Schema, settings ImportSettings, fs FileSystem, http HttpFetcher, merged *Schema, loaded map[string]bool) error {
	for _, importID := range fromSchema.Imports {
		_ = g.AddVertex(importID)

		creates, err := graph.CreatesCycle(g, fromID, importID)
		if err != nil {
			return wrapf(err, "import graph check for %q", importID)
		}
		if creates {
			return &ImportError{ImportPath: importID, Reason: "import cycle detected"}
		}
		if err := g.AddEdge(fromID, importID); err != nil {
			return wrapf(err, "import graph edge %q -> %q", fromID, importID)
		}

		if loaded[importID] {
			continue
		}
		loaded[importID] = true

		text, err := locateImport(importID, settings, fs, http)
		if err != nil {
			return err
		}
		child, _, err := Parse(text, ParseOptions{Format: FormatAuto, Path: importID})
		if err != nil {
			return &ImportError{ImportPath: importID, Reason: err.Error(), Cause: err}
		}

		mergeSchemaInto(merged, child)

		if err := resolveImportsRec(g, importID, child, settings, fs, http, merged, loaded); err != nil {
			return err
		}
	}
	return nil
}

// locateImport resolves importID to text by trying each search path (with
// each recognized extension) in order, then falling back to a base-URL
// fetch (spec §4.4 step 2).
func locateImport(importID string, settings ImportSettings, fs FileSystem, http HttpFetcher) (string, error) {
	if fs != nil {
		for _, sp := range settings.SearchPaths {
			for _, ext := range importExtensions {
				candidate := path.Join(sp, importID+ext)
				if text, err := fs.ReadToString(candidate); err == nil {
					return text, nil
				}
			}
		}
	}
	if settings.BaseURL != "" && http != nil {
		url := joinImportURL(settings.BaseURL, importID)
		status, body, err := http.Get(url)
		if err == nil && status >= 200 && status < 300 {
			return body, nil
		}
	}
	return "", &ImportError{ImportPath: importID, Reason: "not found in any search path or base URL"}
}

func joinImportURL(base, importID string) string {
	if strings.HasSuffix(base, "/") {
		return base + importID
	}
	return base + "/" + importID
}

// mergeSchemaInto implements spec §4.4 step 4: for each collection, an
// imported entry is inserted only if the importer (dst) does not already
// declare that name — existing entries in the importer always win.
// Prefixes merge the same way. Settings and the schema's own id/name are
// left untouched: "Settings of the root are authoritative; imported
// settings are ignored."
func mergeSchemaInto(dst, src *Schema) {
	for _, k := range src.Classes.Keys() {
		if !dst.Classes.Has(k) {
			v, _ := src.Classes.Get(k)
			dst.Classes.Set(k, v)
		}
	}
	for _, k := range src.Slots.Keys() {
		if !dst.Slots.Has(k) {
			v, _ := src.Slots.Get(k)
			dst.Slots.Set(k, v)
		}
	}
	for _, k := range src.Types.Keys() {
		if !dst.Types.Has(k) {
			v, _ := src.Types.Get(k)
			dst.Types.Set(k, v)
		}
	}
	for _, k := range src.Enums.Keys() {
		if !dst.Enums.Has(k) {
			v, _ := src.Enums.Get(k)
			dst.Enums.Set(k, v)
		}
	}
	for _, k := range src.Subsets.Keys() {
		if !dst.Subsets.Has(k) {
			v, _ := src.Subsets.Get(k)
			dst.Subsets.Set(k, v)
		}
	}
	for _, k := range src.Prefixes.Keys() {
		if !dst.Prefixes.Has(k) {
			v, _ := src.Prefixes.Get(k)
			dst.Prefixes.Set(k, v)
		}
	}
}
