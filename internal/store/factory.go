package store

import (
	"replyflow.app/relay/core/db/sqlc"
)

type Stores struct {
	queries *sqlc.Queries
}

func NewStores(queries *sqlc.Queries) *Stores {
	return &Stores{queries: queries}
}

func (s *Stores) Accounts() AccountStore {
	return newAccountStore(s.queries)
}

func (s *Stores) Posts() PostStore {
	return newPostStore(s.queries)
}

func (s *Stores) Rules() RuleStore {
	return newRuleStore(s.queries)
}

func (s *Stores) ReplyRecords() ReplyRecordStore {
	return newReplyRecordStore(s.queries)
}
