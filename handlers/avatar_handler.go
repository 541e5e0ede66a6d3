package handlers

import (
	"context"
	"devQuestAPI/middleware"
	"devQuestAPI/services"
	"net/http"
	"time"
)

const maxAvatarBytes = 5 << 20 // 5MB

type AvatarHandler struct {
	avatarService *services.AvatarService
	userService   *services.UserService
}

func NewAvatarHandler(avatarService *services.AvatarService, userService *services.UserService) *AvatarHandler {
	return &AvatarHandler{
		avatarService: avatarService,
		userService:   userService,
	}
}

// UploadAvatar accepts a multipart "avatar" file, replaces the stored blob
// and saves its public address on the profile.
func (h *AvatarHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	// The bucket client is optional at boot.
	if h.avatarService == nil {
		respondWithError(w, http.StatusServiceUnavailable, "Avatar storage unavailable")
		return
	}

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	u, err := h.userService.GetUserByClerkID(ctx, clerkID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBytes)
	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		respondWithError(w, http.StatusBadRequest, "Avatar must be a multipart upload of at most 5MB")
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Missing 'avatar' file field")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	switch contentType {
	case "image/png", "image/jpeg", "image/webp":
	default:
		respondWithError(w, http.StatusBadRequest, "Avatar must be a PNG, JPEG or WebP image")
		return
	}

	url, err := h.avatarService.Upload(ctx, u.ID.String(), file, contentType)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	if err := h.userService.SetAvatarURL(ctx, clerkID, &url); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"avatar_url": url})
}

func (h *AvatarHandler) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if h.avatarService == nil {
		respondWithError(w, http.StatusServiceUnavailable, "Avatar storage unavailable")
		return
	}

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	u, err := h.userService.GetUserByClerkID(ctx, clerkID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	if err := h.avatarService.Remove(ctx, u.ID.String()); err != nil {
		respondWithAppError(w, err)
		return
	}

	if err := h.userService.SetAvatarURL(ctx, clerkID, nil); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Avatar removed"})
}
