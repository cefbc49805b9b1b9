package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xela07ax/vizitka-api/internal/api/service"
	"github.com/xela07ax/vizitka-api/internal/apperror"
	"github.com/xela07ax/vizitka-api/internal/domain"
)

type CardHandler struct {
	service   *service.CardService
	maxUpload int64
	logger    *zap.Logger
}

func NewCardHandler(s *service.CardService, maxUpload int64, logger *zap.Logger) *CardHandler {
	return &CardHandler{service: s, maxUpload: maxUpload, logger: logger.Named("card-handler")}
}

// List обрабатывает GET /api/cards: каждый видит ровно свой срез каталога.
func (h *CardHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _, ok := actorFrom(r)
	if !ok {
		respondError(w, h.logger, apperror.Authentication("Access denied"))
		return
	}

	cards, err := h.service.List(r.Context(), actor)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respond(w, http.StatusOK, "Cards retrieved successfully", map[string]interface{}{"cards": cards})
}

// Get обрабатывает GET /api/cards/{id}
func (h *CardHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, _, ok := actorFrom(r)
	if !ok {
		respondError(w, h.logger, apperror.Authentication("Access denied"))
		return
	}

	id, err := parseCardID(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	card, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respond(w, http.StatusOK, "Card retrieved successfully", map[string]interface{}{"card": card})
}

// Create обрабатывает POST /api/cards (JSON или multipart с аватаркой)
func (h *CardHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _, ok := actorFrom(r)
	if !ok {
		respondError(w, h.logger, apperror.Authentication("Access denied"))
		return
	}

	payload, err := h.parsePayload(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	card, err := h.service.Create(r.Context(), actor, payload)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respond(w, http.StatusCreated, "Card created successfully", map[string]interface{}{"card": card})
}

// Update обрабатывает PUT /api/cards/{id}
func (h *CardHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, _, ok := actorFrom(r)
	if !ok {
		respondError(w, h.logger, apperror.Authentication("Access denied"))
		return
	}

	id, err := parseCardID(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	payload, err := h.parsePayload(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	card, err := h.service.Update(r.Context(), actor, id, payload)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respond(w, http.StatusOK, "Card updated successfully", map[string]interface{}{"card": card})
}

// Delete обрабатывает DELETE /api/cards/{id}
func (h *CardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, _, ok := actorFrom(r)
	if !ok {
		respondError(w, h.logger, apperror.Authentication("Access denied"))
		return
	}

	id, err := parseCardID(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	if err := h.service.Delete(r.Context(), actor, id); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respond(w, http.StatusOK, "Card deleted successfully", nil)
}

// ProfileImage обрабатывает GET /api/cards/{id}/profile-image.
// Единственный эндпоинт, отвечающий не конвертом, а сырыми байтами.
func (h *CardHandler) ProfileImage(w http.ResponseWriter, r *http.Request) {
	actor, _, ok := actorFrom(r)
	if !ok {
		respondError(w, h.logger, apperror.Authentication("Access denied"))
		return
	}

	id, err := parseCardID(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	data, mime, err := h.service.GetImage(r.Context(), actor, id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	if mime == "" {
		mime = http.DetectContentType(data)
	}
	w.Header().Set("Content-Type", mime)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// parseCardID валидирует формат идентификатора ДО любого похода в базу:
// битый id — это 400, а не 404 и не 403.
func parseCardID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, apperror.Validation("Invalid card ID format")
	}
	return id, nil
}

// parsePayload нормализует обе формы запроса в CardPayload:
// чистый JSON либо multipart с частью `data` (JSON визитки)
// и опциональной частью `profilePicture` (файл, image-only, лимит из конфига).
func (h *CardHandler) parsePayload(r *http.Request) (*domain.CardPayload, error) {
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "multipart/form-data") {
		var payload domain.CardPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			return nil, apperror.Validation("Invalid request body")
		}
		return &payload, nil
	}

	// Общий потолок тела: аватарка + небольшой запас на текстовые поля
	r.Body = http.MaxBytesReader(nil, r.Body, h.maxUpload+1024*1024)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		return nil, apperror.Validation("Request body is too large or malformed")
	}

	var payload domain.CardPayload
	data := r.FormValue("data")
	if data == "" {
		return nil, apperror.Validation("Missing card data")
	}
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return nil, apperror.Validation("Invalid card data")
	}

	file, header, err := r.FormFile("profilePicture")
	if err != nil {
		if err == http.ErrMissingFile {
			return &payload, nil
		}
		return nil, apperror.Validation("Invalid profile picture upload")
	}
	defer file.Close()

	if header.Size > h.maxUpload {
		return nil, apperror.Validation("Profile picture exceeds the 5MB limit")
	}

	raw, err := io.ReadAll(io.LimitReader(file, h.maxUpload+1))
	if err != nil {
		return nil, apperror.Validation("Failed to read profile picture")
	}
	if int64(len(raw)) > h.maxUpload {
		return nil, apperror.Validation("Profile picture exceeds the 5MB limit")
	}

	// Доверяем содержимому, а не расширению и не заголовку клиента
	mime := http.DetectContentType(raw)
	if !strings.HasPrefix(mime, "image/") {
		return nil, apperror.Validation("Profile picture must be an image")
	}

	payload.Picture = raw
	payload.PictureMime = mime
	payload.HasPicture = true
	return &payload, nil
}
