package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNewFormatterByEnvironment(t *testing.T) {
	prod := New("production", "debug")
	_, isJSON := prod.Formatter.(*logrus.JSONFormatter)
	assert.True(t, isJSON)
	assert.Equal(t, logrus.DebugLevel, prod.GetLevel())

	dev := New("development", "nonsense")
	_, isText := dev.Formatter.(*logrus.TextFormatter)
	assert.True(t, isText)
	assert.Equal(t, logrus.InfoLevel, dev.GetLevel())
}
