package config

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestLoadEnvWithFallback(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		wantValue    string
		wantFallback bool
	}{
		{name: "unset uses default silently", value: "", wantValue: "0 */6 * * *"},
		{name: "valid value", value: "30 5 * * *", wantValue: "30 5 * * *"},
		{name: "invalid value falls back", value: "every hour", wantValue: "0 */6 * * *", wantFallback: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_CRON", tt.value)
			res := LoadEnvWithFallback("TEST_CRON", "0 */6 * * *", ValidateCronSchedule)
			assert.Equal(t, tt.wantValue, res.Value)
			assert.Equal(t, tt.wantFallback, res.FallbackApplied)
			if tt.wantFallback {
				assert.Len(t, res.Warnings, 1)
				assert.Contains(t, res.Warnings[0], "Invalid TEST_CRON='every hour'")
			} else {
				assert.Empty(t, res.Warnings)
			}
		})
	}
}

func TestLoadEnvDuration(t *testing.T) {
	t.Setenv("TEST_TIMEOUT", "45s")
	assert.Equal(t, 45*time.Second, LoadEnvDuration("TEST_TIMEOUT", time.Minute, ValidatePositiveDuration).Value)

	t.Setenv("TEST_TIMEOUT", "soon")
	res := LoadEnvDuration("TEST_TIMEOUT", time.Minute, ValidatePositiveDuration)
	assert.Equal(t, time.Minute, res.Value)
	assert.True(t, res.FallbackApplied)

	t.Setenv("TEST_TIMEOUT", "-5s")
	assert.True(t, LoadEnvDuration("TEST_TIMEOUT", time.Minute, ValidatePositiveDuration).FallbackApplied)
}

func TestLoadEnvInt(t *testing.T) {
	inRange := func(v int) error { return ValidateIntRange(v, 1, 10) }

	t.Setenv("TEST_WORKERS", "4")
	assert.Equal(t, 4, LoadEnvInt("TEST_WORKERS", 2, inRange).Value)

	t.Setenv("TEST_WORKERS", "40")
	res := LoadEnvInt("TEST_WORKERS", 2, inRange)
	assert.Equal(t, 2, res.Value)
	assert.True(t, res.FallbackApplied)
}

func TestLoadEnvBool(t *testing.T) {
	t.Setenv("TEST_FLAG", "true")
	assert.True(t, LoadEnvBool("TEST_FLAG", false).Value)

	t.Setenv("TEST_FLAG", "maybe")
	res := LoadEnvBool("TEST_FLAG", false)
	assert.False(t, res.Value)
	assert.True(t, res.FallbackApplied)
}

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_STR", "")
	assert.Equal(t, "def", GetEnvString("TEST_STR", "def"))
	t.Setenv("TEST_STR", "val")
	assert.Equal(t, "val", GetEnvString("TEST_STR", "def"))

	t.Setenv("TEST_INT", "x")
	assert.Equal(t, 3, GetEnvInt("TEST_INT", 3))
	t.Setenv("TEST_INT", "8")
	assert.Equal(t, 8, GetEnvInt("TEST_INT", 3))

	t.Setenv("TEST_BOOL", "0")
	assert.False(t, GetEnvBool("TEST_BOOL", true))
	t.Setenv("TEST_BOOL", "nope")
	assert.True(t, GetEnvBool("TEST_BOOL", true))

	t.Setenv("TEST_DUR", "2m")
	assert.Equal(t, 2*time.Minute, GetEnvDuration("TEST_DUR", time.Second))
	t.Setenv("TEST_DUR", "2 minutes")
	assert.Equal(t, time.Second, GetEnvDuration("TEST_DUR", time.Second))
}

func TestValidators(t *testing.T) {
	assert.NoError(t, ValidateCronSchedule("*/15 * * * *"))
	assert.Error(t, ValidateCronSchedule(""))
	assert.Error(t, ValidateCronSchedule("* * *"))

	assert.NoError(t, ValidateTimezone("Indian/Maldives"))
	assert.Error(t, ValidateTimezone("Mars/Olympus"))
	assert.Error(t, ValidateTimezone(""))

	assert.NoError(t, ValidateDuration(time.Minute, time.Second, time.Hour))
	assert.Error(t, ValidateDuration(time.Millisecond, time.Second, time.Hour))
	assert.Error(t, ValidateDuration(2*time.Hour, time.Second, time.Hour))
	assert.Error(t, ValidateDuration(time.Minute, time.Hour, time.Second))

	assert.NoError(t, ValidateIntRange(5, 1, 10))
	assert.Error(t, ValidateIntRange(0, 1, 10))
	assert.Error(t, ValidateIntRange(5, 10, 1))

	assert.NoError(t, OneOf("html", "rss")("rss"))
	assert.Error(t, OneOf("html", "rss")("atom"))
}

func TestConfigMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := newConfigMetrics(promauto.With(reg), "unit")

	m.RecordFallback("timezone")
	m.RecordFallback("timezone")
	m.SetFallbackActive(true)
	m.RecordLoadTimestamp()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FallbacksTotal.WithLabelValues("timezone")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ValidationErrorsTotal.WithLabelValues("timezone")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FallbackActive))
	assert.Greater(t, testutil.ToFloat64(m.LoadTimestamp), 0.0)

	m.SetFallbackActive(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.FallbackActive))
}
