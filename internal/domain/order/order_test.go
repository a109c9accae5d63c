package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrder_Preview(t *testing.T) {
	o := &Order{Comment: "Нужны два грузчика"}

	assert.Equal(t, "Нужны два грузчика", o.Preview(200))
	assert.Equal(t, "Нужны...", o.Preview(5))
	assert.Equal(t, o.Comment, o.Preview(0))
	assert.Equal(t, o.Comment, o.ModerationText())
}
