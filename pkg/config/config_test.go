package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 5*time.Minute, cfg.Exams.WarningThreshold)
	assert.Equal(t, time.Minute, cfg.Exams.CriticalThreshold)
	assert.Equal(t, 50.0, cfg.Exams.PassPercentage)
	assert.Equal(t, "RequestVerificationToken", cfg.AntiForgery.HeaderName)
	assert.Equal(t, []string{"en-US", "ar-EG"}, cfg.Locale.Supported)
	assert.Equal(t, 7, cfg.Wallet.ExpiringWithinDays)
}

func TestFromViperInvalidPassPercentageFallsBack(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("EXAM_PASS_PERCENTAGE", 140)

	cfg := fromViper(v)
	assert.Equal(t, 50.0, cfg.Exams.PassPercentage)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Hour, parseDuration("", time.Hour))
	assert.Equal(t, time.Hour, parseDuration("soon", time.Hour))
	assert.Equal(t, 90*time.Second, parseDuration("90s", time.Hour))
}

func TestSplitAndTrim(t *testing.T) {
	assert.Nil(t, splitAndTrim(""))
	assert.Equal(t, []string{"a", "b"}, splitAndTrim(" a , ,b "))
}
