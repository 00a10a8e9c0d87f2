package validate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"jobradar/internal/catalog"
)

func TestRunnerPreservesMasterOrder(t *testing.T) {
	tokens := []string{"a", "b", "c", "d", "e"}
	fn := func(_ context.Context, token string) (bool, string) {
		if token == "b" || token == "d" {
			return false, "no_jobs"
		}
		return true, "ok"
	}

	r := NewRunner(4, 0, zap.NewNop())
	valid, invalid := r.Run(context.Background(), "greenhouse", tokens, fn)

	assert.Equal(t, []string{"a", "c", "e"}, valid)
	assert.Equal(t, []catalog.InvalidToken{
		{Token: "b", Reason: "no_jobs"},
		{Token: "d", Reason: "no_jobs"},
	}, invalid)
}

func TestRunnerEmptyInput(t *testing.T) {
	r := NewRunner(2, 0, zap.NewNop())
	valid, invalid := r.Run(context.Background(), "lever", nil, func(context.Context, string) (bool, string) {
		t.Fatal("validator must not run for empty input")
		return false, ""
	})
	assert.Empty(t, valid)
	assert.Empty(t, invalid)
}
