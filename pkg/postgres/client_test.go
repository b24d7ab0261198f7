package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsAuthError(t *testing.T) {
	denied := fmt.Errorf("pinging postgres localhost:5432: %w", &pq.Error{Code: "28P01", Message: "password authentication failed"})
	assert.True(t, IsAuthError(denied))
	assert.False(t, IsAuthError(&pq.Error{Code: "57P03", Message: "the database system is starting up"}))
	assert.False(t, IsAuthError(errors.New("connection refused")))
	assert.False(t, IsAuthError(nil))
}
