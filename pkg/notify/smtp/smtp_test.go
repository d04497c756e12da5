package smtp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"github.com/williamokano/s3transfer/pkg/auth"
	"github.com/williamokano/s3transfer/pkg/notify"
)

func TestSplitServer(t *testing.T) {
	tests := []struct {
		name          string
		server        string
		authenticated bool
		wantHost      string
		wantPort      int
		wantErr       bool
	}{
		{"explicit port", "email-smtp.ap-northeast-1.amazonaws.com:465", true, "email-smtp.ap-northeast-1.amazonaws.com", 465, false},
		{"relay default port", "localhost", false, "localhost", DefaultPort, false},
		{"authenticated default port", "smtp.example.com", true, "smtp.example.com", SubmissionPort, false},
		{"bad port", "smtp.example.com:abc", false, "", 0, true},
		{"empty", "", false, "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, port, err := splitServer(tt.server, tt.authenticated)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHost, host)
			assert.Equal(t, tt.wantPort, port)
		})
	}
}

func TestClientOptions(t *testing.T) {
	t.Run("key_pair_enables_auth", func(t *testing.T) {
		host, opts, err := ClientOptions(notify.Settings{
			SMTPServer: "email-smtp.ap-northeast-1.amazonaws.com",
			Credentials: auth.Credentials{
				Profile: "default",
				Keys:    auth.KeyPair{AccessKey: "AKIA", SecretKey: "secret"},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "email-smtp.ap-northeast-1.amazonaws.com", host)
		assert.Len(t, opts, 5)
	})

	t.Run("relay_without_auth", func(t *testing.T) {
		_, opts, err := ClientOptions(notify.Settings{SMTPServer: "localhost"})
		require.NoError(t, err)
		assert.Len(t, opts, 2)
	})
}

func TestNew(t *testing.T) {
	m, err := New(notify.Settings{
		SMTPServer: "localhost:2525",
		From:       "transfer@example.com",
		To:         []string{"ops@example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, "transfer@example.com", m.from)

	_, err = New(notify.Settings{})
	assert.Error(t, err)
}

func TestBuildMessage(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		msg, err := buildMessage(
			"transfer@example.com",
			[]string{"ops@example.com"},
			[]string{"lead@example.com"},
			"[SUCCESS][db01] 2026/10/17 Transfer S3 - uploaded",
			"Transfer S3 succeeded.",
		)
		require.NoError(t, err)

		rcpts, err := msg.GetRecipients()
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"ops@example.com", "lead@example.com"}, rcpts)
		assert.Equal(t, []string{"[SUCCESS][db01] 2026/10/17 Transfer S3 - uploaded"}, msg.GetGenHeader(mail.HeaderSubject))
	})

	t.Run("invalid_from", func(t *testing.T) {
		_, err := buildMessage("not an address", []string{"ops@example.com"}, nil, "s", "b")
		assert.Error(t, err)
	})

	t.Run("invalid_to", func(t *testing.T) {
		_, err := buildMessage("transfer@example.com", []string{"@@"}, nil, "s", "b")
		assert.Error(t, err)
	})
}
