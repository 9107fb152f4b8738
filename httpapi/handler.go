/*
Copyright © 2025 ChorusHub.

Released under MIT license.
*/

// Package httpapi exposes the clip catalog over HTTP.
// It authenticates callers by bearer tokens, rate-limits uploads per caller,
// and funnels all catalog mutations through the clip store.
package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/chorushub/go-clipkit/clipstore"
	"github.com/chorushub/go-clipkit/log"
)

// Multipart form field names for clip uploads.
const (
	formFieldAudio          = "audio"
	formFieldLanguage       = "language"
	formFieldDialect        = "dialect"
	formFieldTranscript     = "transcript"
	formFieldSpeakerGender  = "speakerGender"
	formFieldSpeakerAge     = "speakerAgeRange"
	formFieldSpeakerNative  = "speakerNativeLanguage"
	multipartFormMaxMemSize = 1024 * 1024
)

// ClipData represents a clip in API responses.
type ClipData struct {
	ID              string                `json:"id"`
	Language        string                `json:"language"`
	Dialect         string                `json:"dialect,omitempty"`
	Speaker         clipstore.SpeakerInfo `json:"speaker"`
	Transcript      string                `json:"transcript"`
	CreatedBy       string                `json:"createdBy"`
	CreatedAt       string                `json:"createdAt"`
	Score           int                   `json:"score"`
	Difficulty      float64               `json:"difficulty"`
	DifficultyCount int                   `json:"difficultyCount"`
	AudioURL        string                `json:"audioUrl"`
}

// VoteData represents a request body for voting on a clip.
type VoteData struct {
	Value int `json:"value"`
}

// RatingData represents a request body for rating a clip's difficulty.
type RatingData struct {
	Rating int `json:"rating"`
}

// ClipsHandler handles requests to the clip API.
type ClipsHandler struct {
	Store        *clipstore.Store
	MaxAudioSize int64
}

// NewClipsHandler creates a new ClipsHandler.
func NewClipsHandler(store *clipstore.Store, maxAudioSize int64) *ClipsHandler {
	return &ClipsHandler{Store: store, MaxAudioSize: maxAudioSize}
}

// ListClips responds with all clips, newest first.
func (h *ClipsHandler) ListClips(rw http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromContext(r.Context())
	clips, err := h.Store.ListClips(r.Context())
	if err != nil {
		logger.Error("list clips", log.Error(err))
		RespondInternalError(rw, logger)
		return
	}
	result := make([]ClipData, 0, len(clips))
	for _, clip := range clips {
		result = append(result, makeClipData(clip))
	}
	RespondJSON(rw, http.StatusOK, result, logger)
}

// UploadClip saves a new clip from a multipart form with an audio payload.
func (h *ClipsHandler) UploadClip(rw http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromContext(r.Context())

	r.Body = http.MaxBytesReader(rw, r.Body, h.MaxAudioSize+multipartFormMaxMemSize)
	if err := r.ParseMultipartForm(multipartFormMaxMemSize); err != nil {
		RespondError(rw, http.StatusBadRequest,
			NewError(ErrCodeMalformedRequest, "Malformed multipart form."), logger)
		return
	}

	language := r.FormValue(formFieldLanguage)
	transcript := r.FormValue(formFieldTranscript)
	if language == "" || transcript == "" {
		RespondError(rw, http.StatusBadRequest,
			NewError(ErrCodeMalformedRequest, "Fields language and transcript are required."), logger)
		return
	}

	audioFile, _, err := r.FormFile(formFieldAudio)
	if err != nil {
		RespondError(rw, http.StatusBadRequest,
			NewError(ErrCodeMalformedRequest, "Audio payload is required."), logger)
		return
	}
	defer func() { _ = audioFile.Close() }()

	audio, err := io.ReadAll(io.LimitReader(audioFile, h.MaxAudioSize+1))
	if err != nil {
		logger.Error("read audio payload", log.Error(err))
		RespondInternalError(rw, logger)
		return
	}
	if int64(len(audio)) > h.MaxAudioSize {
		RespondError(rw, http.StatusRequestEntityTooLarge,
			NewError(ErrCodeMalformedRequest, fmt.Sprintf("Audio payload exceeds %d bytes.", h.MaxAudioSize)), logger)
		return
	}

	clip := clipstore.Clip{
		Language:   language,
		Dialect:    r.FormValue(formFieldDialect),
		Transcript: transcript,
		Speaker: clipstore.SpeakerInfo{
			Gender:         r.FormValue(formFieldSpeakerGender),
			AgeRange:       r.FormValue(formFieldSpeakerAge),
			NativeLanguage: r.FormValue(formFieldSpeakerNative),
		},
		CreatedBy: callerSubject(r),
	}

	saved, err := h.Store.SaveClip(r.Context(), clip, audio)
	if err != nil {
		logger.Error("save clip", log.Error(err))
		RespondInternalError(rw, logger)
		return
	}
	RespondJSON(rw, http.StatusCreated, makeClipData(saved), logger)
}

// GetClip responds with a single clip by its id.
func (h *ClipsHandler) GetClip(rw http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromContext(r.Context())
	clip, err := h.Store.GetClip(r.Context(), chi.URLParam(r, "clipID"))
	if err != nil {
		respondStoreError(rw, err, logger)
		return
	}
	RespondJSON(rw, http.StatusOK, makeClipData(clip), logger)
}

// GetClipAudio serves the clip's audio payload.
func (h *ClipsHandler) GetClipAudio(rw http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromContext(r.Context())
	clip, err := h.Store.GetClip(r.Context(), chi.URLParam(r, "clipID"))
	if err != nil {
		respondStoreError(rw, err, logger)
		return
	}
	http.ServeFile(rw, r, h.Store.AudioPath(clip))
}

// AddVote records the caller's vote on a clip.
func (h *ClipsHandler) AddVote(rw http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromContext(r.Context())
	var voteData VoteData
	if err := DecodeRequestJSON(r, &voteData); err != nil {
		RespondError(rw, http.StatusBadRequest, NewError(ErrCodeMalformedRequest, "Malformed JSON body."), logger)
		return
	}
	if voteData.Value != clipstore.VoteUp && voteData.Value != clipstore.VoteDown {
		RespondError(rw, http.StatusBadRequest,
			NewError(ErrCodeMalformedRequest,
				fmt.Sprintf("Vote value should be %d or %d.", clipstore.VoteUp, clipstore.VoteDown)), logger)
		return
	}
	if err := h.Store.AddVote(r.Context(), chi.URLParam(r, "clipID"), callerSubject(r), voteData.Value); err != nil {
		respondStoreError(rw, err, logger)
		return
	}
	RespondJSON(rw, http.StatusNoContent, nil, logger)
}

// RateDifficulty records the caller's difficulty rating of a clip.
func (h *ClipsHandler) RateDifficulty(rw http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromContext(r.Context())
	var ratingData RatingData
	if err := DecodeRequestJSON(r, &ratingData); err != nil {
		RespondError(rw, http.StatusBadRequest, NewError(ErrCodeMalformedRequest, "Malformed JSON body."), logger)
		return
	}
	if ratingData.Rating < clipstore.MinDifficulty || ratingData.Rating > clipstore.MaxDifficulty {
		RespondError(rw, http.StatusBadRequest,
			NewError(ErrCodeMalformedRequest,
				fmt.Sprintf("Difficulty rating should be in [%d, %d].",
					clipstore.MinDifficulty, clipstore.MaxDifficulty)), logger)
		return
	}
	err := h.Store.RateDifficulty(r.Context(), chi.URLParam(r, "clipID"), callerSubject(r), ratingData.Rating)
	if err != nil {
		respondStoreError(rw, err, logger)
		return
	}
	RespondJSON(rw, http.StatusNoContent, nil, logger)
}

func makeClipData(clip *clipstore.Clip) ClipData {
	difficulty, count := clip.Difficulty()
	return ClipData{
		ID:              clip.ID,
		Language:        clip.Language,
		Dialect:         clip.Dialect,
		Speaker:         clip.Speaker,
		Transcript:      clip.Transcript,
		CreatedBy:       clip.CreatedBy,
		CreatedAt:       clip.CreatedAt.Format(time.RFC3339Nano),
		Score:           clip.Score(),
		Difficulty:      difficulty,
		DifficultyCount: count,
		AudioURL:        fmt.Sprintf("/clips/%s/audio", clip.ID),
	}
}

func callerSubject(r *http.Request) string {
	if client := GetClientFromContext(r.Context()); client != nil {
		return client.Subject
	}
	return ""
}

func respondStoreError(rw http.ResponseWriter, err error, logger log.FieldLogger) {
	if errors.Is(err, clipstore.ErrClipNotFound) {
		RespondError(rw, http.StatusNotFound, NewError(ErrCodeNotFound, "Clip is not found."), logger)
		return
	}
	logger.Error("clip store error", log.Error(err))
	RespondInternalError(rw, logger)
}
