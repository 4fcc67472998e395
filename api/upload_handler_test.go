package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/rpupo63/portfolio-backend/filestore"
	"github.com/rpupo63/portfolio-backend/models"
)

const testCallbackSecret = "callback-secret"

func TestSaveFile(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.admin(http.MethodPost, "/upload", map[string]string{
		"key":  "uploads/abc/cover.png",
		"name": "cover.png",
		"url":  "https://cdn.example.com/uploads/abc/cover.png",
		"size": "51200",
	})
	expectStatus(t, rec, http.StatusCreated)
	created := decodeJSON[models.Upload](t, rec)

	rec = env.do(http.MethodGet, "/upload/"+created.ID.String(), nil, nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decodeJSON[models.Upload](t, rec); got.Key != "uploads/abc/cover.png" {
		t.Errorf("key = %q", got.Key)
	}

	rec = env.admin(http.MethodPost, "/upload", map[string]string{
		"key":  "uploads/abc/cover.png",
		"name": "cover.png",
		"url":  "https://cdn.example.com/uploads/abc/cover.png",
		"size": "51200",
	})
	expectStatus(t, rec, http.StatusConflict)
	if got := decodeJSON[ErrorResponse](t, rec); got.Error != "File already exists" {
		t.Errorf("error = %q", got.Error)
	}

	rec = env.admin(http.MethodPost, "/upload", map[string]string{"key": "only-a-key"})
	expectStatus(t, rec, http.StatusBadRequest)
	if got := decodeJSON[ErrorResponse](t, rec); got.Field != "name" {
		t.Errorf("field = %q, want name", got.Field)
	}
}

func TestGetFileNotFound(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodGet, "/upload/7f1d3c0e-8a55-4d57-9a3b-2f4f5c1f9b10", nil, nil)
	expectStatus(t, rec, http.StatusNotFound)
	if got := decodeJSON[ErrorResponse](t, rec); got.Error != "File not found" {
		t.Errorf("error = %q", got.Error)
	}
}

func TestCompleteUploadCallback(t *testing.T) {
	env := newTestEnv(t, map[string]string{"UPLOAD_CALLBACK_SECRET": testCallbackSecret})

	body, _ := json.Marshal(map[string]string{
		"key":  "uploads/def/logo.webp",
		"name": "logo.webp",
		"url":  "https://cdn.example.com/uploads/def/logo.webp",
		"size": "1024",
	})

	tests := []struct {
		name       string
		signature  string
		wantStatus int
	}{
		{"missing signature", "", http.StatusUnauthorized},
		{"wrong secret", filestore.Sign("other-secret", body), http.StatusUnauthorized},
		{"valid signature", filestore.Sign(testCallbackSecret, body), http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.signature != "" {
				headers[filestore.SignatureHeader] = tt.signature
			}
			rec := env.do(http.MethodPost, "/uploads/complete", body, headers)
			expectStatus(t, rec, tt.wantStatus)
		})
	}

	uploads, err := env.db.UploadRepo().FindAll(context.Background())
	if err != nil {
		t.Fatalf("find uploads: %v", err)
	}
	if len(uploads) != 1 {
		t.Errorf("%d uploads stored, want 1", len(uploads))
	}
}

func TestCompleteUploadCallbackRepeated(t *testing.T) {
	env := newTestEnv(t, map[string]string{"UPLOAD_CALLBACK_SECRET": testCallbackSecret})

	body, _ := json.Marshal(map[string]string{
		"key":  "uploads/ghi/banner.jpg",
		"name": "banner.jpg",
		"url":  "https://cdn.example.com/uploads/ghi/banner.jpg",
		"size": "4096",
	})
	headers := map[string]string{filestore.SignatureHeader: filestore.Sign(testCallbackSecret, body)}

	rec := env.do(http.MethodPost, "/uploads/complete", body, headers)
	expectStatus(t, rec, http.StatusCreated)
	first := decodeJSON[models.Upload](t, rec)

	rec = env.do(http.MethodPost, "/uploads/complete", body, headers)
	expectStatus(t, rec, http.StatusOK)
	if again := decodeJSON[models.Upload](t, rec); again.ID != first.ID {
		t.Errorf("repeated callback returned %s, want %s", again.ID, first.ID)
	}

	uploads, err := env.db.UploadRepo().FindAll(context.Background())
	if err != nil {
		t.Fatalf("find uploads: %v", err)
	}
	if len(uploads) != 1 {
		t.Errorf("%d uploads stored, want 1", len(uploads))
	}
}

func TestCompleteUploadWithoutSecret(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodPost, "/uploads/complete", "{}", map[string]string{
		filestore.SignatureHeader: filestore.Sign("", []byte("{}")),
	})
	expectStatus(t, rec, http.StatusServiceUnavailable)
}

type stubPresigner struct {
	calls int
}

func (p *stubPresigner) PresignUpload(ctx context.Context, filename, contentType string, size int64) (*filestore.PresignedUpload, error) {
	p.calls++
	if err := filestore.ValidateImage(contentType, size); err != nil {
		return nil, err
	}
	key := "uploads/fixed/" + filename
	return &filestore.PresignedUpload{
		UploadURL: "https://bucket.s3.amazonaws.com/" + key + "?X-Amz-Signature=abc",
		Method:    http.MethodPut,
		Key:       key,
		URL:       "https://cdn.example.com/" + key,
		ExpiresAt: time.Now().Add(15 * time.Minute),
	}, nil
}

func TestPresignUpload(t *testing.T) {
	presigner := &stubPresigner{}
	env := newTestEnv(t, nil, func(r *router) { r.fileStore = presigner })

	rec := env.admin(http.MethodPost, "/uploads/presign", map[string]any{
		"filename":    "cover.png",
		"contentType": "image/png",
		"size":        2048,
	})
	expectStatus(t, rec, http.StatusOK)
	got := decodeJSON[filestore.PresignedUpload](t, rec)
	if got.Key != "uploads/fixed/cover.png" || got.Method != http.MethodPut {
		t.Errorf("unexpected presigned upload: %+v", got)
	}

	tests := []struct {
		name        string
		contentType string
		size        int64
	}{
		{"not an image", "application/pdf", 2048},
		{"too large", "image/png", filestore.MaxImageSize + 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.admin(http.MethodPost, "/uploads/presign", map[string]any{
				"filename":    "file",
				"contentType": tt.contentType,
				"size":        tt.size,
			})
			expectStatus(t, rec, http.StatusBadRequest)
			if got := decodeJSON[ErrorResponse](t, rec); got.Field != "file" {
				t.Errorf("field = %q, want file", got.Field)
			}
		})
	}

	rec = env.admin(http.MethodPost, "/uploads/presign", map[string]any{
		"filename":    "cover.png",
		"contentType": "image/png",
	})
	expectStatus(t, rec, http.StatusBadRequest)
	if presigner.calls != 3 {
		t.Errorf("presigner called %d times, want 3", presigner.calls)
	}
}

func TestPresignUploadUnconfigured(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.admin(http.MethodPost, "/uploads/presign", map[string]any{
		"filename":    "cover.png",
		"contentType": "image/png",
		"size":        2048,
	})
	expectStatus(t, rec, http.StatusServiceUnavailable)
	if got := decodeJSON[ErrorResponse](t, rec); got.Details != "" {
		t.Errorf("server error leaked details: %q", got.Details)
	}
}

type recordingNotifier struct {
	messages []*models.Message
}

func (n *recordingNotifier) NotifyNewMessage(ctx context.Context, m *models.Message) {
	n.messages = append(n.messages, m)
}

func TestCreateMessageNotifiesOwner(t *testing.T) {
	notifier := &recordingNotifier{}
	env := newTestEnv(t, nil, func(r *router) { r.notifier = notifier })

	rec := env.do(http.MethodPost, "/messages", map[string]string{
		"name":    "Ada",
		"email":   "ada@example.com",
		"message": "Would love to chat about your project.",
	}, nil)
	expectStatus(t, rec, http.StatusCreated)
	created := decodeJSON[models.Message](t, rec)

	if len(notifier.messages) != 1 || notifier.messages[0].ID != created.ID {
		t.Fatalf("notifier got %d messages", len(notifier.messages))
	}

	rec = env.admin(http.MethodGet, "/messages", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decodeJSON[[]models.Message](t, rec); len(got) != 1 {
		t.Errorf("listed %d messages, want 1", len(got))
	}

	rec = env.admin(http.MethodGet, "/message/"+created.ID.String(), nil)
	expectStatus(t, rec, http.StatusOK)

	rec = env.admin(http.MethodDelete, "/message/"+created.ID.String(), nil)
	expectStatus(t, rec, http.StatusOK)

	rec = env.admin(http.MethodGet, "/message/"+created.ID.String(), nil)
	expectStatus(t, rec, http.StatusNotFound)
	if got := decodeJSON[ErrorResponse](t, rec); got.Error != "Message not found" {
		t.Errorf("error = %q", got.Error)
	}
}

func TestCreateMessageValidation(t *testing.T) {
	env := newTestEnv(t, nil)

	long := strings.Repeat("a", 5001)

	tests := []struct {
		name      string
		body      map[string]string
		wantField string
	}{
		{"missing email", map[string]string{"name": "Ada", "message": "hi"}, "email"},
		{"empty email", map[string]string{"name": "Ada", "email": "", "message": "hi"}, "email"},
		{"empty name", map[string]string{"name": "", "email": "ada@example.com", "message": "hi"}, "name"},
		{"missing message", map[string]string{"name": "Ada", "email": "ada@example.com"}, "message"},
		{"message too long", map[string]string{"name": "Ada", "email": "ada@example.com", "message": long}, "message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/messages", tt.body, nil)
			expectStatus(t, rec, http.StatusBadRequest)
			if got := decodeJSON[ErrorResponse](t, rec); got.Field != tt.wantField {
				t.Errorf("field = %q, want %q", got.Field, tt.wantField)
			}
		})
	}
}

func TestMessageBodyTooLarge(t *testing.T) {
	env := newTestEnv(t, nil)

	body := fmt.Sprintf(`{"name":"Ada","email":"ada@example.com","message":%q}`, strings.Repeat("a", int(maxBodySize)))
	rec := env.do(http.MethodPost, "/messages", body, nil)
	expectStatus(t, rec, http.StatusRequestEntityTooLarge)
}
