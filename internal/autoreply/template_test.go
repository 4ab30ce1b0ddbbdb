package autoreply_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"replyflow.app/relay/internal/autoreply"
	"replyflow.app/relay/internal/model"
)

var _ = Describe("Render", func() {
	in := model.Interaction{AuthorName: "alice", Text: "great post"}

	It("substitutes author and text", func() {
		Expect(autoreply.Render("hi {author}, re: {text}", in)).To(Equal("hi alice, re: great post"))
	})

	It("leaves unknown placeholders verbatim", func() {
		Expect(autoreply.Render("{greeting} {author} {Author}", in)).To(Equal("{greeting} alice {Author}"))
	})

	It("does not expand placeholders inside substituted text", func() {
		tricky := model.Interaction{AuthorName: "{text}", Text: "{author}"}
		Expect(autoreply.Render("{author}/{text}", tricky)).To(Equal("{text}/{author}"))
	})

	It("returns templates without placeholders unchanged", func() {
		Expect(autoreply.Render("thanks!", in)).To(Equal("thanks!"))
	})
})
