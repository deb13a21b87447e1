// Package validation validates configuration structs and request input.
//
// Struct tag validation (go-playground/validator) is used for component
// configs; field names in messages follow the mapstructure or json tag so
// they match the keys a user writes in config.yml.
//
//	type Config struct {
//	    MaxConcurrency int `mapstructure:"max_concurrency" validate:"gte=1"`
//	}
//	err := validation.Validate(cfg)
//
// The programmatic Validator collects checks that tags cannot express:
//
//	v := validation.New()
//	v.OneOf("provider", cfg.Provider, []string{"google", "whisper"})
//	err := v.Validate()
package validation
