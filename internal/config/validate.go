package config

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"

	"github.com/web3-frozen/daily-report/internal/report"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by the variable an operator would set.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("env"); name != "" {
			return name
		}
		if name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ","); name != "" && name != "-" {
			return name
		}
		return fld.Name
	})
	return v
}

// keyedSources lists sources that cannot run without an API key.
func (c Config) keyedSources() map[string]SourceConfig {
	return map[string]SourceConfig{
		"CRYPTOPANIC_API_KEY": c.Sources.CryptoPanic,
		"ROOTDATA_API_KEY":    c.Sources.RootData,
	}
}

// Validate checks the configuration before any network call. Every problem
// is returned as a *report.ConfigError.
func (c Config) Validate() error {
	cerr := &report.ConfigError{}
	var reasons []string

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return &report.ConfigError{Reason: err.Error()}
		}
		for _, fe := range verrs {
			if fe.Tag() == "required_if" || fe.Tag() == "required" {
				cerr.Missing = append(cerr.Missing, fe.Field())
				continue
			}
			reasons = append(reasons, fmt.Sprintf("%s fails %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		}
	}

	for env, src := range c.keyedSources() {
		if src.Enabled && src.Required && src.APIKey == "" {
			cerr.Missing = append(cerr.Missing, env)
		}
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		reasons = append(reasons, fmt.Sprintf("REPORT_TIMEZONE: %v", err))
	}
	if c.Schedule != "" {
		if _, err := cron.ParseStandard(c.Schedule); err != nil {
			reasons = append(reasons, fmt.Sprintf("REPORT_SCHEDULE: %v", err))
		}
	}

	if len(cerr.Missing) == 0 && len(reasons) == 0 {
		return nil
	}
	slices.Sort(cerr.Missing)
	cerr.Reason = strings.Join(reasons, "; ")
	return cerr
}
