package autoreply_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"replyflow.app/relay/internal/autoreply"
	"replyflow.app/relay/internal/model"
)

var _ = Describe("Matches", func() {
	var (
		now  time.Time
		rule model.Rule
	)

	reply := func(text string) model.Interaction {
		return model.Interaction{ExternalID: "r1", Kind: model.InteractionKindReply, Text: text}
	}

	BeforeEach(func() {
		now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		rule = model.Rule{
			Triggers:         model.Triggers{Reply: true},
			KeywordCondition: model.KeywordConditionNone,
			KeywordMatchType: model.KeywordMatchPartial,
		}
	})

	Describe("trigger kinds", func() {
		It("matches an enabled kind", func() {
			Expect(autoreply.Matches(rule, reply("anything"), now)).To(BeTrue())
		})

		It("ignores kinds the rule does not trigger on", func() {
			in := reply("anything")
			in.Kind = model.InteractionKindRepost
			Expect(autoreply.Matches(rule, in, now)).To(BeFalse())
		})

		It("matches likes when enabled", func() {
			rule.Triggers = model.Triggers{Like: true}
			in := model.Interaction{ExternalID: "like:p:u", Kind: model.InteractionKindLike}
			Expect(autoreply.Matches(rule, in, now)).To(BeTrue())
		})
	})

	Describe("keyword filter", func() {
		BeforeEach(func() {
			rule.Keywords = []string{"yes", "ok"}
		})

		It("passes when the condition is none", func() {
			Expect(autoreply.Matches(rule, reply("nope"), now)).To(BeTrue())
		})

		It("passes when the keyword list is empty", func() {
			rule.KeywordCondition = model.KeywordConditionAll
			rule.Keywords = nil
			Expect(autoreply.Matches(rule, reply("nope"), now)).To(BeTrue())
		})

		Context("exact", func() {
			BeforeEach(func() {
				rule.KeywordMatchType = model.KeywordMatchExact
				rule.KeywordCondition = model.KeywordConditionAny
			})

			It("matches the whole text", func() {
				Expect(autoreply.Matches(rule, reply("yes"), now)).To(BeTrue())
				Expect(autoreply.Matches(rule, reply("ok"), now)).To(BeTrue())
			})

			It("does not match a keyword inside longer text", func() {
				Expect(autoreply.Matches(rule, reply("yes please"), now)).To(BeFalse())
			})

			It("is case and whitespace sensitive", func() {
				Expect(autoreply.Matches(rule, reply("YES"), now)).To(BeFalse())
				Expect(autoreply.Matches(rule, reply("Yes"), now)).To(BeFalse())
				Expect(autoreply.Matches(rule, reply(" yes "), now)).To(BeFalse())
			})

			It("requires every keyword under all", func() {
				rule.KeywordCondition = model.KeywordConditionAll
				Expect(autoreply.Matches(rule, reply("yes"), now)).To(BeFalse())

				rule.Keywords = []string{"yes"}
				Expect(autoreply.Matches(rule, reply("yes"), now)).To(BeTrue())
			})
		})

		Context("partial", func() {
			It("matches a case-insensitive substring under any", func() {
				rule.KeywordCondition = model.KeywordConditionAny
				Expect(autoreply.Matches(rule, reply("YES please"), now)).To(BeTrue())
				Expect(autoreply.Matches(rule, reply("no thanks"), now)).To(BeFalse())
			})

			It("requires every keyword under all", func() {
				rule.KeywordCondition = model.KeywordConditionAll
				Expect(autoreply.Matches(rule, reply("yes please"), now)).To(BeFalse())
				Expect(autoreply.Matches(rule, reply("yes, that's ok"), now)).To(BeTrue())
			})
		})
	})

	Describe("date window", func() {
		It("never matches after the end date", func() {
			end := now.Add(-time.Hour)
			rule.FilterEndDate = &end
			Expect(autoreply.Matches(rule, reply("anything"), now)).To(BeFalse())
		})

		It("does not match before the start date", func() {
			start := now.Add(time.Hour)
			rule.FilterStartDate = &start
			Expect(autoreply.Matches(rule, reply("anything"), now)).To(BeFalse())
		})

		It("matches inside the window, bounds included", func() {
			start, end := now, now
			rule.FilterStartDate = &start
			rule.FilterEndDate = &end
			Expect(autoreply.Matches(rule, reply("anything"), now)).To(BeTrue())
		})
	})
})
