package json

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type department struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
}

func TestMarshalUnmarshal(t *testing.T) {
	in := department{ID: "1", Name: "Physics", Code: "PHY"}

	data, err := Marshal(in)
	require.NoError(t, err)

	var out department
	require.NoError(t, Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestRawMessageRoundTrip(t *testing.T) {
	var env struct {
		Data RawMessage `json:"data"`
	}
	require.NoError(t, Unmarshal([]byte(`{"data":{"data":[1,2,3]}}`), &env))
	assert.JSONEq(t, `{"data":[1,2,3]}`, string(env.Data))

	var inner struct {
		Data []int `json:"data"`
	}
	require.NoError(t, Unmarshal(env.Data, &inner))
	assert.Equal(t, []int{1, 2, 3}, inner.Data)
}

func TestEncoderDecoder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewEncoder(&buf).Encode(department{ID: "7", Name: "Library"}))

	var out department
	require.NoError(t, NewDecoder(&buf).Decode(&out))
	assert.Equal(t, "Library", out.Name)
}

func TestValid(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"object", `{"success":true}`, true},
		{"null", `null`, true},
		{"truncated", `{"success":`, false},
		{"empty", ``, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Valid([]byte(tt.input)))
		})
	}
}

func TestModeSwitching(t *testing.T) {
	defer ConfigStandardMode()

	ConfigFastestMode()
	data, err := Marshal(map[string]int{"page": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"page":1}`, string(data))
}
