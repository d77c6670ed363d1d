package rest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractItem(t *testing.T) {
	tests := []struct {
		body    string
		want    string
		shape   itemShape
		wantErr bool
	}{
		{`{"data":{"id":1}}`, `{"id":1}`, itemData, false},
		{`{"data":{"data":{"id":1}}}`, `{"id":1}`, itemNested, false},
		{`{"id":1}`, `{"id":1}`, itemBare, false},
		{`{"data":[1,2]}`, `[1,2]`, itemData, false},
		{`{"data":{"data":[1]}}`, `[1]`, itemNested, false},
		{`"text"`, `"text"`, itemBare, false},
		{`{"data":null}`, ``, itemData, true},
		{`null`, ``, itemBare, true},
		{`   `, ``, itemBare, true},
		{`{"data":`, ``, itemBare, true},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			raw, shape, err := extractItem([]byte(tt.body))
			assert.Equal(t, tt.shape, shape)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(raw))
		})
	}
}

func TestExtractList(t *testing.T) {
	tests := []struct {
		body  string
		n     int
		shape listShape
	}{
		{`{"data":{"data":[1,2,3]}}`, 3, listNested},
		{`{"data":[1,2]}`, 2, listData},
		{`{"data":{"data":{"x":1}}}`, 0, listUnexpected},
		{`{"data":{"rows":[1]}}`, 0, listUnexpected},
		{`[1,2]`, 0, listUnexpected},
		{``, 0, listUnexpected},
	}

	for _, tt := range tests {
		items, shape := extractList([]byte(tt.body))
		assert.Equal(t, tt.shape, shape, tt.body)
		assert.Len(t, items, tt.n, tt.body)
	}
}

func TestPayload(t *testing.T) {
	assert.JSONEq(t, `[1]`, string(Payload([]byte(`{"data":[1]}`))))
	assert.JSONEq(t, `{"data":null,"message":"ok"}`, string(Payload([]byte(`{"data":null,"message":"ok"}`))))
	assert.JSONEq(t, `[1]`, string(Payload([]byte(`[1]`))))
	assert.Nil(t, Payload(nil))
}
