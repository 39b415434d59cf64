package domain

// Cursors holds the last processed server knowledge per user. It is the
// only state persisted across reconciliation cycles.
type Cursors struct {
	User1 int64 `json:"user1" yaml:"user_1"`
	User2 int64 `json:"user2" yaml:"user_2"`
}
