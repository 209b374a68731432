package email

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderOneTimeCode(t *testing.T) {
	body, err := renderOneTimeCode("042137", 10*time.Minute)
	require.NoError(t, err)
	assert.Contains(t, body, "042137")
	assert.Contains(t, body, "10 minutes")
}

func TestRenderEscapesName(t *testing.T) {
	body, err := render("password_changed.html", map[string]string{"Name": "<b>eve</b>"})
	require.NoError(t, err)
	assert.NotContains(t, body, "<b>eve</b>")
	assert.Contains(t, body, "&lt;b&gt;eve&lt;/b&gt;")
}

func TestLogSender(t *testing.T) {
	log, hook := test.NewNullLogger()
	s := NewLogSender(log)

	require.NoError(t, s.SendOneTimeCode("a@example.com", "123456", time.Minute))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "123456", hook.LastEntry().Data["code"])
}
