package envconfig

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetFallsBackOnEmpty(t *testing.T) {
	t.Setenv("STUDY_TEST_VALUE", "")
	assert.Equal(t, "fallback", Get("STUDY_TEST_VALUE", "fallback"))

	t.Setenv("STUDY_TEST_VALUE", "set")
	assert.Equal(t, "set", Get("STUDY_TEST_VALUE", "fallback"))
}

func TestTypedGetters(t *testing.T) {
	t.Setenv("STUDY_TEST_INT", "12")
	t.Setenv("STUDY_TEST_FLOAT", "0.5")
	t.Setenv("STUDY_TEST_DURATION", "1500ms")

	n, err := GetInt("STUDY_TEST_INT", 1)
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	f, err := GetFloat("STUDY_TEST_FLOAT", 1)
	require.NoError(t, err)
	assert.Equal(t, 0.5, f)

	d, err := GetDuration("STUDY_TEST_DURATION", time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, d)

	d, err = GetDuration("STUDY_TEST_UNSET_DURATION", time.Second)
	require.NoError(t, err)
	assert.Equal(t, time.Second, d)
}

func TestTypedGettersRejectGarbage(t *testing.T) {
	t.Setenv("STUDY_TEST_INT", "twelve")
	_, err := GetInt("STUDY_TEST_INT", 1)
	assert.ErrorContains(t, err, "STUDY_TEST_INT")

	t.Setenv("STUDY_TEST_DURATION", "2")
	_, err = GetDuration("STUDY_TEST_DURATION", time.Second)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	type sample struct {
		Name string `validate:"required"`
		Port int    `validate:"min=1,max=65535"`
	}
	assert.NoError(t, Validate(sample{Name: "x", Port: 8080}))
	assert.Error(t, Validate(sample{Port: 8080}))
	assert.Error(t, Validate(sample{Name: "x", Port: 0}))
}
