package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"cinepoint/internal/models"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
)

type kakaoProfile struct {
	ID           int64 `json:"id"`
	KakaoAccount struct {
		Email string `json:"email"`
	} `json:"kakao_account"`
	Properties struct {
		Nickname     string `json:"nickname"`
		ProfileImage string `json:"profile_image"`
	} `json:"properties"`
}

type naverProfile struct {
	Resultcode string `json:"resultcode"`
	Message    string `json:"message"`
	Response   struct {
		ID           string `json:"id"`
		Email        string `json:"email"`
		Nickname     string `json:"nickname"`
		ProfileImage string `json:"profile_image"`
	} `json:"response"`
}

func (service *ServiceIdentity) fetchKakaoProfile(ctx context.Context, accessToken string) (*models.ExternalIdentity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, service.kakaoBaseURL+"/v2/user/me", nil)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")

	resp, err := service.httpClient(1).Do(req)
	if err != nil {
		return nil, errorx.Wrap(fmt.Errorf("kakao profile request: %w", err), errorx.Service)
	}
	defer resp.Body.Close()

	if err := providerStatusError("kakao", resp.StatusCode); err != nil {
		return nil, err
	}
	return parseKakaoProfile(resp.Body)
}

func (service *ServiceIdentity) fetchNaverProfile(ctx context.Context, accessToken string) (*models.ExternalIdentity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, service.naverBaseURL+"/v1/nid/me", nil)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := service.httpClient(1).Do(req)
	if err != nil {
		return nil, errorx.Wrap(fmt.Errorf("naver profile request: %w", err), errorx.Service)
	}
	defer resp.Body.Close()

	if err := providerStatusError("naver", resp.StatusCode); err != nil {
		return nil, err
	}
	return parseNaverProfile(resp.Body)
}

func providerStatusError(provider string, status int) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status >= 500:
		return errorx.Wrap(fmt.Errorf("%s responded %d", provider, status), errorx.Service)
	default:
		return errorx.Wrap(fmt.Errorf("%w: %s responded %d", ErrInvalidProviderToken, provider, status), errorx.Authn)
	}
}

// parseKakaoProfile tolerates missing optional fields; only the numeric id is
// mandatory.
func parseKakaoProfile(r io.Reader) (*models.ExternalIdentity, error) {
	var profile kakaoProfile
	if err := json.NewDecoder(r).Decode(&profile); err != nil {
		return nil, errorx.Wrap(fmt.Errorf("%w: %v", ErrMalformedProfile, err), errorx.Other)
	}
	if profile.ID == 0 {
		return nil, errorx.Wrap(fmt.Errorf("%w: kakao id missing", ErrMalformedProfile), errorx.Other)
	}

	displayName := profile.Properties.Nickname
	if displayName == "" {
		displayName = "Kakao User"
	}

	return &models.ExternalIdentity{
		Provider:       models.ProviderKakao,
		ProviderUserID: strconv.FormatInt(profile.ID, 10),
		Email:          profile.KakaoAccount.Email,
		DisplayName:    displayName,
		AvatarURL:      profile.Properties.ProfileImage,
	}, nil
}

func parseNaverProfile(r io.Reader) (*models.ExternalIdentity, error) {
	var profile naverProfile
	if err := json.NewDecoder(r).Decode(&profile); err != nil {
		return nil, errorx.Wrap(fmt.Errorf("%w: %v", ErrMalformedProfile, err), errorx.Other)
	}
	if profile.Resultcode != "00" {
		return nil, errorx.Wrap(fmt.Errorf("%w: naver resultcode %s (%s)", ErrMalformedProfile, profile.Resultcode, profile.Message), errorx.Other)
	}
	if profile.Response.ID == "" {
		return nil, errorx.Wrap(fmt.Errorf("%w: naver id missing", ErrMalformedProfile), errorx.Other)
	}

	displayName := profile.Response.Nickname
	if displayName == "" {
		displayName = "Naver User"
	}

	return &models.ExternalIdentity{
		Provider:       models.ProviderNaver,
		ProviderUserID: profile.Response.ID,
		Email:          profile.Response.Email,
		DisplayName:    displayName,
		AvatarURL:      profile.Response.ProfileImage,
	}, nil
}
