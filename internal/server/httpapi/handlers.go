// Package httpapi is the HTTP boundary: routing, cookie transport of the
// session tokens, the auth middleware and the JSON response envelope.
package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/channelauth/internal/common"
	"github.com/dmitrijs2005/channelauth/internal/logging"
	"github.com/dmitrijs2005/channelauth/internal/server/auth"
	"github.com/dmitrijs2005/channelauth/internal/server/models"
	"github.com/dmitrijs2005/channelauth/internal/server/services"
	"github.com/go-chi/chi/v5"
)

// Sessions is the account and session API the handlers need.
type Sessions interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.PublicUser, error)
	Login(ctx context.Context, userName, email, password string) (*services.LoginResult, error)
	Logout(ctx context.Context, who auth.Identity) error
	Refresh(ctx context.Context, presented string) (*models.TokenPair, error)
	ChangePassword(ctx context.Context, who auth.Identity, oldPassword, newPassword string) error
	CurrentUser(ctx context.Context, who auth.Identity) (*models.PublicUser, error)
	UpdateAccount(ctx context.Context, who auth.Identity, fullName, email string) (*models.PublicUser, error)
	UpdateAvatar(ctx context.Context, who auth.Identity, ref string) (*models.PublicUser, error)
	UpdateCoverImage(ctx context.Context, who auth.Identity, ref string) (*models.PublicUser, error)
}

// Channels is the channel profile API the handlers need.
type Channels interface {
	GetChannelProfile(ctx context.Context, userName string, viewer *auth.Identity) (*models.ChannelProfile, error)
	Subscribe(ctx context.Context, who auth.Identity, channelUserName string) error
	Unsubscribe(ctx context.Context, who auth.Identity, channelUserName string) error
}

type Handler struct {
	sessions     Sessions
	channels     Channels
	log          logging.Logger
	cookieSecure bool
}

func NewHandler(sessions Sessions, channels Channels, log logging.Logger, cookieSecure bool) *Handler {
	return &Handler{sessions: sessions, channels: channels, log: log, cookieSecure: cookieSecure}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeError(r.Context(), h.log, w, err)
}

// identity returns the caller set by Authenticate. Routes using it are
// mounted behind the required middleware, so a miss is an internal fault.
func (h *Handler) identity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		h.fail(w, r, common.NewError(common.KindUnauthorized, "unauthorized request"))
	}
	return id, ok
}

type registerRequest struct {
	UserName   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	FullName   string `json:"fullName"`
	Avatar     string `json:"avatar"`
	CoverImage string `json:"coverImage"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.sessions.Register(r.Context(), services.RegisterInput{
		UserName:   req.UserName,
		Email:      req.Email,
		Password:   req.Password,
		FullName:   req.FullName,
		Avatar:     req.Avatar,
		CoverImage: req.CoverImage,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, "user registered successfully", user)
}

type loginRequest struct {
	UserName string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User         models.PublicUser `json:"user"`
	AccessToken  string            `json:"accessToken"`
	RefreshToken string            `json:"refreshToken"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.sessions.Login(r.Context(), req.UserName, req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.setSessionCookies(w, res.Tokens)
	writeData(w, http.StatusOK, "user logged in successfully", loginResponse{
		User:         res.User,
		AccessToken:  res.Tokens.AccessToken,
		RefreshToken: res.Tokens.RefreshToken,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	if err := h.sessions.Logout(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	h.clearSessionCookies(w)
	writeData(w, http.StatusOK, "user logged out", nil)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	token := cookieValue(r, common.RefreshTokenCookieName)
	if token == "" {
		var req refreshRequest
		if err := decodeJSON(w, r, &req, true); err != nil {
			h.fail(w, r, err)
			return
		}
		token = req.RefreshToken
	}

	pair, err := h.sessions.Refresh(r.Context(), token)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.setSessionCookies(w, *pair)
	writeData(w, http.StatusOK, "access token refreshed", pair)
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	var req changePasswordRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.sessions.ChangePassword(r.Context(), id, req.OldPassword, req.NewPassword); err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "password changed successfully", nil)
}

func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	user, err := h.sessions.CurrentUser(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "current user fetched successfully", user)
}

type updateAccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	var req updateAccountRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		h.fail(w, r, err)
		return
	}
	user, err := h.sessions.UpdateAccount(r.Context(), id, req.FullName, req.Email)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "account details updated successfully", user)
}

type mediaRequest struct {
	Avatar     string `json:"avatar"`
	CoverImage string `json:"coverImage"`
}

func (h *Handler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateMedia(w, r, "avatar image updated successfully", func(ctx context.Context, id auth.Identity, req mediaRequest) (*models.PublicUser, error) {
		return h.sessions.UpdateAvatar(ctx, id, req.Avatar)
	})
}

func (h *Handler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateMedia(w, r, "cover image updated successfully", func(ctx context.Context, id auth.Identity, req mediaRequest) (*models.PublicUser, error) {
		return h.sessions.UpdateCoverImage(ctx, id, req.CoverImage)
	})
}

func (h *Handler) updateMedia(w http.ResponseWriter, r *http.Request, message string,
	apply func(context.Context, auth.Identity, mediaRequest) (*models.PublicUser, error)) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	var req mediaRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		h.fail(w, r, err)
		return
	}
	user, err := apply(r.Context(), id, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, message, user)
}

func (h *Handler) ChannelProfile(w http.ResponseWriter, r *http.Request) {
	var viewer *auth.Identity
	if id, ok := auth.IdentityFrom(r.Context()); ok {
		viewer = &id
	}

	profile, err := h.channels.GetChannelProfile(r.Context(), chi.URLParam(r, "username"), viewer)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "user channel fetched successfully", profile)
}

func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	if err := h.channels.Subscribe(r.Context(), id, chi.URLParam(r, "username")); err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "subscribed", nil)
}

func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	if err := h.channels.Unsubscribe(r.Context(), id, chi.URLParam(r, "username")); err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "unsubscribed", nil)
}

func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
