package blogservice

import (
	"regexp"
	"time"

	"github.com/sushihentaime/blogicum/internal/common"
)

var (
	SlugRX     = regexp.MustCompile("^[-a-zA-Z0-9_]+$")
	ImageURLRX = regexp.MustCompile(`^https?://`)
)

func validateTitle(v *common.Validator, title string) {
	v.Check(title != "", "title", "must be provided")
	v.Check(v.CheckStringLength(title, 1, 256), "title", "must not be more than 256 characters long")
}

func validateText(v *common.Validator, text string) {
	v.Check(text != "", "text", "must be provided")
}

func validateCommentText(v *common.Validator, text string) {
	v.Check(text != "", "text", "must be provided")
	v.Check(v.CheckStringLength(text, 1, 2000), "text", "must not be more than 2000 characters long")
}

func validateSlug(v *common.Validator, slug string) {
	v.Check(slug != "", "slug", "must be provided")
	v.Check(SlugRX.MatchString(slug), "slug", "must only contain letters, numbers, hyphens, and underscores")
}

func validateImageURL(v *common.Validator, url *string) {
	if url == nil {
		return
	}
	v.Check(ImageURLRX.MatchString(*url), "image_url", "must be an http or https URL")
}

func validatePubDate(v *common.Validator, pubDate *time.Time) {
	if pubDate == nil {
		return
	}
	v.Check(!pubDate.IsZero(), "pub_date", "must be a valid timestamp")
}

func validateInt(v *common.Validator, num int, name string) {
	v.Check(num > 0, name, "must be greater than zero")
}
