package correlation

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestFromHeader(t *testing.T) {
	assert.Equal(t, "req-123", FromHeader("req-123"))

	for _, bad := range []string{"", "has space", "line\nbreak", strings.Repeat("a", 129)} {
		got := FromHeader(bad)
		_, err := uuid.Parse(got)
		assert.NoError(t, err, "%q should be replaced", bad)
	}
}

func TestContextRoundTrip(t *testing.T) {
	assert.Empty(t, FromContext(context.Background()))

	ctx := WithID(context.Background(), "abc")
	assert.Equal(t, "abc", FromContext(ctx))
}
