package models

import "time"

// TwitterTokens is the opaque credential bundle Twitter issues after a
// successful three-legged handshake. Stored only so credentials can be
// re-verified without repeating the handshake; overwritten on every login.
type TwitterTokens struct {
	AccessToken       string `bson:"accessToken" json:"accessToken"`
	AccessTokenSecret string `bson:"accessTokenSecret" json:"accessTokenSecret"`
}

// Privacy holds per-field visibility flags.
type Privacy struct {
	IsEmailPrivate bool `bson:"isEmailPrivate" json:"isEmailPrivate"`
	IsPhonePrivate bool `bson:"isPhonePrivate" json:"isPhonePrivate"`
}

// Verification tracks which contact points have been confirmed.
type Verification struct {
	IsEmailVerified bool `bson:"isEmailVerified" json:"isEmailVerified"`
	IsPhoneVerified bool `bson:"isPhoneVerified" json:"isPhoneVerified"`
}

// DefaultProfileImage is used when an account has no avatar of its own.
const DefaultProfileImage = "default.png"

// User is the persisted identity record. Local (email+password) accounts and
// Twitter accounts reconcile into a single User keyed by lowercased email.
//
// PasswordHash is empty for identities created purely via OAuth.
// RefreshToken holds only the SHA-512 hash of the outstanding refresh token;
// the plaintext is returned to the client exactly once at issuance.
type User struct {
	ID            string         `bson:"_id,omitempty" json:"id"`
	FirstName     string         `bson:"firstName" json:"firstName"`
	MiddleName    string         `bson:"middleName,omitempty" json:"middleName,omitempty"`
	LastName      string         `bson:"lastName" json:"lastName"`
	Email         string         `bson:"email" json:"email"`
	PasswordHash  string         `bson:"password,omitempty" json:"-"`
	Phone         string         `bson:"phone,omitempty" json:"phone,omitempty"`
	Privacy       Privacy        `bson:"privacy" json:"privacy"`
	Verification  Verification   `bson:"verification" json:"verification"`
	ProfileImage  string         `bson:"profileImage" json:"profileImage"`
	Twitter       string         `bson:"twitter,omitempty" json:"twitter,omitempty"`
	TwitterTokens *TwitterTokens `bson:"twitterTokens,omitempty" json:"-"`
	RefreshToken  string         `bson:"refreshToken,omitempty" json:"-"`
	CreatedAt     time.Time      `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time      `bson:"updatedAt" json:"updatedAt"`
}

// PublicUser is the trimmed projection returned to clients after a login.
// It never carries the password hash or the refresh token hash.
type PublicUser struct {
	ID            string         `json:"id"`
	FirstName     string         `json:"firstName"`
	LastName      string         `json:"lastName"`
	Email         string         `json:"email"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	TwitterTokens *TwitterTokens `json:"twitterTokens,omitempty"`
}

// Public returns the trimmed projection of u.
func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:            u.ID,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Email:         u.Email,
		UpdatedAt:     u.UpdatedAt,
		TwitterTokens: u.TwitterTokens,
	}
}

// DisplayName is the name carried in access-token claims.
func (u *User) DisplayName() string {
	return u.FirstName + " " + u.LastName
}
