package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortedParams(t *testing.T) {
	got := SortedParams(map[string]string{"user_id": "1", "fields": "sex", "count": "10"})
	assert.Equal(t, []Param{
		{Key: "count", Value: "10"},
		{Key: "fields", Value: "sex"},
		{Key: "user_id", Value: "1"},
	}, got)

	assert.Empty(t, SortedParams(nil))
}

func TestBuildRawURL(t *testing.T) {
	tests := []struct {
		name   string
		base   string
		path   string
		params []Param
		want   string
	}{
		{
			name: "no params",
			base: "https://api.vk.com/method/",
			path: "users.get",
			want: "https://api.vk.com/method/users.get",
		},
		{
			name:   "first param opens the query",
			base:   "https://api.vk.com/method/",
			path:   "users.get",
			params: []Param{{"v", "5.12"}, {"user_id", "1"}},
			want:   "https://api.vk.com/method/users.get?v=5.12&user_id=1",
		},
		{
			name:   "question mark in path is not treated as a query",
			base:   "http://localhost/method/",
			path:   "users.get?x=1",
			params: []Param{{"v", "5.12"}, {"user_id", "1"}},
			want:   "http://localhost/method/users.get?x=1?v=5.12&user_id=1",
		},
		{
			name:   "values are not escaped",
			base:   "https://api.vk.com/method/",
			path:   "wall.post",
			params: []Param{{"message", "a&b=c"}},
			want:   "https://api.vk.com/method/wall.post?message=a&b=c",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildRawURL(tt.base, tt.path, tt.params))
		})
	}
}
