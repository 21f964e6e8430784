package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCaptcha(t *testing.T) {
	id, image, err := GenerateCaptcha()
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.True(t, strings.HasPrefix(image, "data:image/png;base64,"))
}

func TestVerifyCaptchaWrongAnswer(t *testing.T) {
	id, _, err := GenerateCaptcha()
	require.NoError(t, err)

	assert.False(t, VerifyCaptcha(id, "no-digit-captcha-looks-like-this"))
	assert.False(t, VerifyCaptcha("", "12345"))
	assert.False(t, VerifyCaptcha(id, ""))
}
