package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableName(t *testing.T) {
	s := DefaultNamingStrategy()

	tests := []struct {
		entity string
		table  string
	}{
		{"User", "users"},
		{"BlogPost", "blog_posts"},
		{"UserAccount", "user_accounts"},
		{"HTTPRequest", "http_requests"},
		{"Person", "people"},
		{"order_item", "order_items"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.table, s.TableName(tt.entity), "entity %q", tt.entity)
	}
}

func TestDefaultAlias(t *testing.T) {
	s := DefaultNamingStrategy()

	assert.Equal(t, "blog_post", s.DefaultAlias("BlogPost"))
	assert.Equal(t, "user", s.DefaultAlias("User"))
	assert.Equal(t, "", s.DefaultAlias(""))
}

func TestToSnakeCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"simpleCase", "simple_case"},
		{"ABc", "a_bc"},
		{"a1B", "a1_b"},
		{"already_snake", "already_snake"},
		{"MIXED_Snake", "mixed_snake"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, toSnakeCase(tt.in), "input %q", tt.in)
	}
}
