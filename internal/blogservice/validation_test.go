package blogservice

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/sushihentaime/blogicum/internal/common"
)

func TestValidateTitle(t *testing.T) {
	testCases := []struct {
		name  string
		title string
		valid bool
	}{
		{name: "valid title", title: "A Day in the Mountains", valid: true},
		{name: "empty title", title: "", valid: false},
		{name: "too long", title: strings.Repeat("a", 257), valid: false},
		{name: "max length", title: strings.Repeat("a", 256), valid: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := common.NewValidator()
			validateTitle(v, tc.title)
			assert.Equal(t, tc.valid, v.Valid())
		})
	}
}

func TestValidateSlug(t *testing.T) {
	testCases := []struct {
		name  string
		slug  string
		valid bool
	}{
		{name: "valid slug", slug: "travel-notes_2024", valid: true},
		{name: "empty slug", slug: "", valid: false},
		{name: "spaces", slug: "travel notes", valid: false},
		{name: "unicode", slug: "путешествия", valid: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := common.NewValidator()
			validateSlug(v, tc.slug)
			assert.Equal(t, tc.valid, v.Valid())
		})
	}
}

func TestValidateImageURL(t *testing.T) {
	https := "https://cdn.example.com/img.png"
	ftp := "ftp://example.com/img.png"

	v := common.NewValidator()
	validateImageURL(v, nil)
	assert.True(t, v.Valid())

	v = common.NewValidator()
	validateImageURL(v, &https)
	assert.True(t, v.Valid())

	v = common.NewValidator()
	validateImageURL(v, &ftp)
	assert.False(t, v.Valid())
}

func TestValidateCommentText(t *testing.T) {
	v := common.NewValidator()
	validateCommentText(v, "")
	assert.False(t, v.Valid())
	assert.Equal(t, "must be provided", v.Errors["text"])

	v = common.NewValidator()
	validateCommentText(v, strings.Repeat("a", 2001))
	assert.False(t, v.Valid())

	v = common.NewValidator()
	validateCommentText(v, "nice post")
	assert.True(t, v.Valid())
}
