// SPDX-License-Identifier: Apache-2.0

package loggable

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggableDispatchesToConfiguredLevel(t *testing.T) {
	var buf bytes.Buffer
	lg := &Loggable{}
	WithInfoLogger(log.New(&buf, "", 0))(lg)

	lg.Infof("hello %s", "world")
	lg.Debugf("should not appear")

	assert.Contains(t, buf.String(), "hello world")
	assert.NotContains(t, buf.String(), "should not appear")
}

func TestLoggableNilLoggerIsNoop(t *testing.T) {
	lg := &Loggable{}
	assert.NotPanics(t, func() {
		lg.Debugf("x")
		lg.Infof("x")
		lg.Warnf("x")
		lg.Errorf("x")
	})
}
