package locale

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	at := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		tag  string
		want string
	}{
		{"en-US", "6/15/2025, 2:30:00 PM"},
		{"en", "6/15/2025, 2:30:00 PM"},
		{"en-GB", "15/06/2025, 14:30:00"},
		{"en-IN", "15/6/2025, 2:30:00 pm"},
		{"hi-IN", "15/6/2025, 2:30:00 pm"},
		{"de-DE", "15.6.2025, 14:30:00"},
		{"pt-BR", "15/06/2025 14:30:00"},
		{"fr", "15/06/2025 14:30:00"},
		{"ja-JP", "6/15/2025, 2:30:00 PM"},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			l, err := New(tt.tag, "UTC")
			require.NoError(t, err)
			assert.Equal(t, tt.want, l.Format(at))
		})
	}
}

func TestFormatUsesZone(t *testing.T) {
	l, err := New("en-GB", "Asia/Kolkata")
	require.NoError(t, err)
	at := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)
	assert.Equal(t, "15/06/2025, 20:00:00", l.Format(at))
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New("not a tag!", "UTC")
	assert.Error(t, err)

	_, err = New("en-US", "Mars/Olympus")
	assert.Error(t, err)
}

func TestSprintf(t *testing.T) {
	t.Run("english", func(t *testing.T) {
		l := MustNew("en-US", "UTC")
		assert.Equal(t, "Certificate Approved", l.Sprintf(MsgApprovedTitle))
		assert.Equal(t, "Certificate for Asha has been approved.", l.Sprintf(MsgApprovedMessage, "Asha"))
	})

	t.Run("hindi", func(t *testing.T) {
		l := MustNew("hi-IN", "UTC")
		assert.Equal(t, "प्रमाणपत्र अस्वीकृत", l.Sprintf(MsgRejectedTitle))
		assert.Equal(t, "Asha का प्रमाणपत्र अस्वीकृत कर दिया गया है।", l.Sprintf(MsgRejectedMessage, "Asha"))
	})

	t.Run("unsupported language falls back to english", func(t *testing.T) {
		l := MustNew("de-DE", "UTC")
		assert.Equal(t, "Certificate for Ravi has been rejected.", l.Sprintf(MsgRejectedMessage, "Ravi"))
	})
}
