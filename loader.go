package linkschema

// LoadSchema implements spec §6.2's `load_schema(path|url|text, format)`:
// parse text, resolve its transitive imports against settings (falling
// back to the parsed schema's own Settings when settings is the zero
// value), and validate the resulting ancestry graph by constructing a
// Resolver over it. fs/http may be nil for schemas with no imports.
func LoadSchema(text string, opts ParseOptions, settings ImportSettings, fs FileSystem, http HttpFetcher) (*Schema, []Issue, error) {
	schema, issues, err := Parse(text, opts)
	if err != nil {
		return nil, issues, err
	}

	if len(settings.SearchPaths) == 0 && settings.BaseURL == "" {
		settings = ImportSettingsFromSchema(schema.Settings)
	}

	merged := schema
	if len(schema.Imports) > 0 {
		merged, err = ResolveImports(schema, settings, fs, http)
		if err != nil {
			return nil, issues, err
		}
	}

	if err := merged.ValidateForUse(); err != nil {
		return nil, issues, err
	}
	if _, err := NewResolver(merged); err != nil {
		return nil, issues, err
	}
	return merged, issues, nil
}
