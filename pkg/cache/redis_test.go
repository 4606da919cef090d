package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/school-records-api/pkg/config"
)

func TestOptions(t *testing.T) {
	opts := Options(config.RedisConfig{Host: "cache.internal", Port: 6380, Password: "secret", DB: 2})
	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, time.Second, opts.ReadTimeout)
}
