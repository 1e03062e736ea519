package models

import "fmt"

const (
	ProviderKakao = "kakao"
	ProviderNaver = "naver"
)

// ExternalIdentity is the canonical shape every provider profile response is
// normalized into before any business logic touches it. Never persisted.
type ExternalIdentity struct {
	Provider       string `json:"provider"`
	ProviderUserID string `json:"provider_user_id"`
	Email          string `json:"email"`
	DisplayName    string `json:"display_name"`
	AvatarURL      string `json:"avatar_url"`
}

// LocalID namespaces raw provider ids so identical ids from different
// providers never collide. This id is UserAccount.ID.
func (identity *ExternalIdentity) LocalID() string {
	return fmt.Sprintf("%s:%s", identity.Provider, identity.ProviderUserID)
}
