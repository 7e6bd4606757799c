package isotope

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFolderKey(t *testing.T) {
	assert.Equal(t, "26_56", Isotope{Z: 26, A: 56}.FolderKey())
	assert.Equal(t, "8_16", Isotope{Z: 8, A: 16}.FolderKey())
}

func TestParseQuery(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantZ    *int
		wantA    *int
		wantErr  bool
		complete bool
	}{
		{name: "both", query: "A=56&Z=26", wantZ: intPtr(26), wantA: intPtr(56), complete: true},
		{name: "lower case", query: "a=56&z=26", wantZ: intPtr(26), wantA: intPtr(56), complete: true},
		{name: "none", query: ""},
		{name: "only Z", query: "Z=26", wantZ: intPtr(26)},
		{name: "empty value", query: "Z=&A=56", wantA: intPtr(56)},
		{name: "not a number", query: "Z=iron&A=56", wantErr: true},
		{name: "zero", query: "Z=0&A=56", wantErr: true},
		{name: "negative", query: "Z=26&A=-1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.query)
			require.NoError(t, err)

			p, err := ParseQuery(values.Get)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidParam)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantZ, p.Z)
			assert.Equal(t, tt.wantA, p.A)
			assert.Equal(t, tt.complete, p.Complete())
		})
	}
}

func TestParsePath(t *testing.T) {
	p, err := ParsePath("/A=56&Z=26")
	require.NoError(t, err)
	iso, ok := p.Isotope()
	require.True(t, ok)
	assert.Equal(t, Isotope{Z: 26, A: 56}, iso)

	p, err = ParsePath("/")
	require.NoError(t, err)
	assert.False(t, p.Complete())

	_, err = ParsePath("/A=x&Z=26")
	assert.ErrorIs(t, err, ErrInvalidParam)
}

func intPtr(v int) *int { return &v }
