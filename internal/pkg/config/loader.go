// Package config provides fail-open environment loaders, value validators and
// configuration metrics shared by every binary.
//
// Loaders never return errors: an invalid value falls back to the default and
// the reason is reported as a warning so the process can still start.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// LoadResult is the outcome of loading one setting.
type LoadResult[T any] struct {
	Value           T
	Warnings        []string
	FallbackApplied bool
}

func fallback[T any](envKey, raw string, def T, err error) LoadResult[T] {
	return LoadResult[T]{
		Value:           def,
		Warnings:        []string{fmt.Sprintf("Invalid %s='%s': %v, falling back to default '%v'", envKey, raw, err, def)},
		FallbackApplied: true,
	}
}

func load[T any](envKey string, def T, parse func(string) (T, error), validate func(T) error) LoadResult[T] {
	raw := os.Getenv(envKey)
	if raw == "" {
		return LoadResult[T]{Value: def}
	}
	v, err := parse(raw)
	if err != nil {
		return fallback(envKey, raw, def, err)
	}
	if validate != nil {
		if err := validate(v); err != nil {
			return fallback(envKey, raw, def, err)
		}
	}
	return LoadResult[T]{Value: v}
}

// LoadEnvWithFallback loads a string setting.
//
//	res := LoadEnvWithFallback("CRON_SCHEDULE", "0 */6 * * *", ValidateCronSchedule)
func LoadEnvWithFallback(envKey, def string, validate func(string) error) LoadResult[string] {
	return load(envKey, def, func(s string) (string, error) { return s, nil }, validate)
}

// LoadEnvDuration loads a Go duration string such as "30s" or "1h30m".
func LoadEnvDuration(envKey string, def time.Duration, validate func(time.Duration) error) LoadResult[time.Duration] {
	return load(envKey, def, time.ParseDuration, validate)
}

// LoadEnvInt loads a base-10 integer.
func LoadEnvInt(envKey string, def int, validate func(int) error) LoadResult[int] {
	return load(envKey, def, strconv.Atoi, validate)
}

// LoadEnvBool loads a boolean accepted by strconv.ParseBool.
func LoadEnvBool(envKey string, def bool) LoadResult[bool] {
	return load(envKey, def, strconv.ParseBool, nil)
}
