package twofactor

import "time"

// Session is the one-time-code state of a user. There is at most one per
// email; each init overwrites it.
type Session struct {
	Email         string    `bson:"_id" json:"email"`
	SessionID     string    `bson:"sessionId" json:"sessionId"`
	Code          string    `bson:"code" json:"-"`
	Token         string    `bson:"token" json:"-"`
	Attempts      int       `bson:"attempts" json:"attempts"`
	CodeUsed      bool      `bson:"codeUsed" json:"codeUsed"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
	CodeExpiresAt time.Time `bson:"codeExpiresAt" json:"codeExpiresAt"`
	ExpiresAt     time.Time `bson:"expiresAt" json:"expiresAt"`
}
