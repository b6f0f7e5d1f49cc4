package fetcher

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey_OrderIndependent(t *testing.T) {
	a, err := Key("/articles", Params{"entity_name": "Apple", "limit": 5})
	require.NoError(t, err)
	b, err := Key("/articles", Params{"limit": 5, "entity_name": "Apple"})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, "/articles?entity_name=Apple&limit=5", a)
}

func TestKey_OmitsEmptyAndNil(t *testing.T) {
	a, err := Key("/articles", Params{"entity_type": "", "limit": 5})
	require.NoError(t, err)
	b, err := Key("/articles", Params{"limit": 5})
	require.NoError(t, err)
	c, err := Key("/articles", Params{"limit": 5, "author": nil})
	require.NoError(t, err)

	assert.Equal(t, b, a)
	assert.Equal(t, b, c)
	assert.Equal(t, "/articles?limit=5", a)
}

func TestKey_NoParams(t *testing.T) {
	k, err := Key("/entities", nil)
	require.NoError(t, err)
	assert.Equal(t, "/entities?", k)

	k2, err := Key("/entities", Params{})
	require.NoError(t, err)
	assert.Equal(t, k, k2)
}

func TestKey_EmptyEndpoint(t *testing.T) {
	_, err := Key("", Params{"limit": 5})
	assert.True(t, errors.Is(err, ErrEmptyEndpoint))
}

func TestParamsEncode_Scalars(t *testing.T) {
	q, err := Params{
		"summarize": true,
		"strict":    false,
		"offset":    0,
		"limit":     int64(20),
		"ratio":     0.5,
		"small":     float32(1.25),
		"count":     uint8(3),
		"search":    "tesla motors",
	}.Encode()
	require.NoError(t, err)

	assert.Equal(t, "count=3&limit=20&offset=0&ratio=0.5&search=tesla+motors&small=1.25&strict=false&summarize=true", q)
}

func TestParamsEncode_RejectsNonScalars(t *testing.T) {
	cases := []Params{
		{"tags": []string{"a"}},
		{"filter": map[string]string{"a": "b"}},
		{"": "value"},
	}
	for _, p := range cases {
		_, err := p.Encode()
		assert.ErrorIs(t, err, ErrInvalidParam, "params %v", p)
	}
}
