package linkschema

import "github.com/spf13/viper"

// ViperConfigStore adapts a *viper.Viper to the ConfigStore capability
// (spec §4.15). It reads the dotted setting names of spec §3.1 directly
// off the viper instance, so a host can load Settings from YAML/JSON/env
// via viper's own file/env binding and hand the populated instance here;
// validation itself never requires a ConfigStore.
type ViperConfigStore struct {
	v *viper.Viper
}

// NewViperConfigStore wraps v. A nil v yields DefaultSettings().
func NewViperConfigStore(v *viper.Viper) *ViperConfigStore { return &ViperConfigStore{v: v} }

func (c *ViperConfigStore) LoadSettings() (Settings, error) {
	s := DefaultSettings()
	if c == nil || c.v == nil {
		return s, nil
	}
	v := c.v
	if v.IsSet("validation.strict") {
		s.ValidationStrict = v.GetBool("validation.strict")
	}
	if v.IsSet("validation.fail_fast") {
		s.ValidationFailFast = v.GetBool("validation.fail_fast")
	}
	if v.IsSet("validation.check_permissibles") {
		s.ValidationCheckPermissibles = v.GetBool("validation.check_permissibles")
	}
	if v.IsSet("validation.allow_additional_properties") {
		s.ValidationAllowAdditionalProps = v.GetBool("validation.allow_additional_properties")
	}
	if v.IsSet("validation.max_errors") {
		s.ValidationMaxErrors = v.GetInt("validation.max_errors")
	}
	if v.IsSet("validation.max_depth") {
		s.ValidationMaxDepth = v.GetInt("validation.max_depth")
	}
	if v.IsSet("imports.search_paths") {
		s.ImportsSearchPaths = v.GetStringSlice("imports.search_paths")
	}
	if v.IsSet("imports.base_url") {
		s.ImportsBaseURL = v.GetString("imports.base_url")
	}
	if v.IsSet("performance.cache_size") {
		s.PerformanceCacheSize = v.GetInt("performance.cache_size")
	}
	if v.IsSet("performance.expression_cache_enabled") {
		s.PerformanceExpressionCacheEnabled = v.GetBool("performance.expression_cache_enabled")
	}
	return s, nil
}
