package autoreply

import (
	"strings"

	"replyflow.app/relay/internal/model"
)

const (
	PlaceholderAuthor = "{author}"
	PlaceholderText   = "{text}"
)

// Render substitutes the trigger's author name and text into a reply template. Substitution is
// a single pass, so placeholders inside the substituted values are not expanded again.
// Anything else in braces is left as written.
func Render(template string, in model.Interaction) string {
	return strings.NewReplacer(
		PlaceholderAuthor, in.AuthorName,
		PlaceholderText, in.Text,
	).Replace(template)
}
