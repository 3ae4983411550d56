package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		input    string
		expected zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{" WARN ", zerolog.WarnLevel},
		{"", zerolog.InfoLevel},
		{"loud", zerolog.InfoLevel},
	}
	for i, testCase := range testCases {
		if l := ParseLevel(testCase.input); l != testCase.expected {
			t.Errorf("Test case %d ParseLevel(%q) = %s, expected %s", i, testCase.input, l, testCase.expected)
		}
	}
}

func TestGetZeroLogger(t *testing.T) {
	t.Setenv("COLORIZE_LOG", "false")
	var buf bytes.Buffer
	logger := GetZeroLogger("test::logger", &buf)
	logger.Info().Str(TableCodeKey, "main").Msg("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.Contains(t, buf.String(), "tableCode=main")
}
